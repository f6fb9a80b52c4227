package app

import (
	"context"

	"github.com/adanyl0v/go-todo-tenants/internal/config"
	"github.com/adanyl0v/go-todo-tenants/internal/storage"
)

var globalObjectStore *storage.JetStreamStore

func MustConnectObjectStore() {
	cfg := config.Global().NATS

	var err error
	globalObjectStore, err = storage.NewJetStreamStore(cfg.URL, cfg.Bucket, cfg.ConnectTimeout)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to nats")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	err = globalObjectStore.Init(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("bucket", cfg.Bucket).
			Msg("failed to open object store")
		panic(err)
	}
	globalLogger.Info().
		Str("url", cfg.URL).
		Str("bucket", cfg.Bucket).
		Msg("connected to object store")
}

func DisconnectObjectStore() {
	globalObjectStore.Close()
	globalLogger.Info().Msg("disconnected from object store")
}
