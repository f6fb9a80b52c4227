package app

import (
	"context"

	"github.com/adanyl0v/go-todo-tenants/internal/config"
	"github.com/adanyl0v/go-todo-tenants/internal/services"
)

func MustVerifyEmail(email string) {
	authService := services.NewAuthService(globalLogger, globalPostgresPool, newJWTParams(config.Global().JWT))

	err := authService.VerifyEmail(context.Background(), email)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to verify email")
		panic(err)
	}
}

func newJWTParams(cfg config.JWTConfig) services.JWTParams {
	return services.JWTParams{
		Issuer:          cfg.Issuer,
		SigningKey:      []byte(cfg.SigningKey),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}
}
