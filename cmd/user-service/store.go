package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/core/ports"
	"github.com/shopmesh/platform/internal/infrastructure/config"
	"github.com/shopmesh/platform/internal/infrastructure/db/memory"
	mongodb "github.com/shopmesh/platform/internal/infrastructure/db/mongo"
	"github.com/shopmesh/platform/internal/infrastructure/db/postgres"
)

// openStore connects the user store selected by STORE_DRIVER. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserStore, func(), error) {
	switch cfg.Store.Driver {
	case "mongo":
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
			Timeout:  cfg.Store.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}

		store := mongodb.NewUserStore(db, cfg.Store.Timeout)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo user store ready")
		return store, closeFn, nil

	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, Timeout: cfg.Store.Timeout})
		if err != nil {
			return nil, nil, err
		}

		store := postgres.NewUserStore(pool, cfg.Store.Timeout)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("postgres user store ready")
		return store, pool.Close, nil

	case "memory":
		log.Warn().Msg("using the in-memory user store, data is lost on restart")
		return memory.NewUserStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
