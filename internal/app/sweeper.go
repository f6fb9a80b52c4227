package app

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/adanyl0v/go-todo-tenants/internal/config"
	"github.com/adanyl0v/go-todo-tenants/internal/services"
)

var globalCron *cron.Cron

// MustStartMediaSweeper schedules the orphaned media sweep. It is a
// no-op when no schedule is configured.
func MustStartMediaSweeper() {
	cfg := config.Global().Media
	if cfg.SweepSchedule == "" {
		globalLogger.Info().Msg("media sweep disabled")
		return
	}

	sweeper := services.NewMediaSweeper(
		globalLogger,
		globalPostgresPool,
		globalObjectStore,
		cfg.SweepGracePeriod,
	)

	globalCron = cron.New()
	_, err := globalCron.AddFunc(cfg.SweepSchedule, func() {
		_, err := sweeper.Sweep(context.Background())
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to sweep media")
		}
	})
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("schedule", cfg.SweepSchedule).
			Msg("failed to schedule media sweep")
		panic(err)
	}

	globalCron.Start()
	globalLogger.Info().
		Str("schedule", cfg.SweepSchedule).
		Dur("grace_period", cfg.SweepGracePeriod).
		Msg("started media sweeper")
}

func StopMediaSweeper() {
	if globalCron == nil {
		return
	}
	<-globalCron.Stop().Done()
	globalLogger.Info().Msg("stopped media sweeper")
}
