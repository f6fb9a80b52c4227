package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-todo-tenants/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("admin_route_prefix", cfg.Admin.RoutePrefix).
		Str("nats_bucket", cfg.NATS.Bucket).
		Bool("media_sweep", cfg.Media.SweepSchedule != "").
		Msg("read env")

	config.SetGlobal(cfg)
}
