package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/api"
	"github.com/shopmesh/platform/internal/api/handler"
	"github.com/shopmesh/platform/internal/core/service"
	"github.com/shopmesh/platform/internal/infrastructure/config"
	redisdb "github.com/shopmesh/platform/internal/infrastructure/db/redis"
	"github.com/shopmesh/platform/internal/infrastructure/messaging"
	"github.com/shopmesh/platform/internal/infrastructure/queue"
	"github.com/shopmesh/platform/internal/infrastructure/security"
	"github.com/shopmesh/platform/pkg/logger"
)

const serviceName = "user-service"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Service: serviceName})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Version: cfg.Version,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("user service stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.InsecureSecret {
		log.Warn().Msg("JWT_SECRET not set, signing tokens with an insecure development secret")
	}

	hasher, err := security.NewHasher(security.HasherConfig{
		Algorithm:  cfg.Hasher.Algorithm,
		BcryptCost: cfg.Hasher.BcryptCost,
		Argon2: security.Argon2Params{
			MemoryKB:    cfg.Hasher.Argon2MemoryKB,
			Iterations:  cfg.Hasher.Argon2Iterations,
			Parallelism: cfg.Hasher.Argon2Parallelism,
			SaltLength:  security.DefaultArgon2Params.SaltLength,
			KeyLength:   security.DefaultArgon2Params.KeyLength,
		},
	})
	if err != nil {
		return err
	}
	tokens, err := security.NewJWTService(cfg.Auth.JWTSecret, security.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return err
	}

	// --- Storage ---
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	health := map[string]handler.Pinger{"store": store}

	// --- Optional redis ---
	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
			Timeout:  cfg.Store.Timeout,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		health["redis"] = handler.PingFunc(redisdb.Pinger(rdb))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	// --- Events ---
	broker, err := messaging.New(messaging.Config{
		Driver:             cfg.Broker.Driver,
		RabbitURL:          cfg.Broker.RabbitURL,
		RabbitExchange:     cfg.Broker.RabbitExchange,
		KafkaBrokers:       cfg.Broker.KafkaBrokers,
		KafkaTopicPrefix:   cfg.Broker.KafkaTopicPrefix,
		RedisChannelPrefix: cfg.Broker.RedisChannelPrefix,
	}, rdb, logger.Component("messaging"))
	if err != nil {
		return err
	}
	defer func() {
		if err := broker.Close(); err != nil {
			log.Warn().Err(err).Msg("broker close failed")
		}
	}()
	health["broker"] = broker
	log.Info().Str("driver", cfg.Broker.Driver).Msg("event broker ready")

	dispatcher := queue.NewDispatcher(broker, queue.Options{
		Workers:        cfg.Broker.Workers,
		Buffer:         cfg.Broker.Buffer,
		PublishTimeout: cfg.Broker.PublishTimeout,
	}, logger.Component("dispatcher"))
	dispatcher.Start()

	// --- Service ---
	svc := service.NewAuthService(store, hasher, tokens, dispatcher, cfg.Auth.TokenTTL, log)

	if cfg.Admin.Email != "" {
		created, err := svc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return err
		}
		log.Info().Str("email", cfg.Admin.Email).Bool("created", created).Msg("admin account ensured")
	}

	router := api.NewRouter(api.Deps{
		Service:       svc,
		Tokens:        tokens,
		Health:        health,
		Version:       cfg.Version,
		Log:           log,
		ExposeDetails: !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("store", cfg.Store.Driver).Msg("user service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("user service shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	// the server has stopped producing events; flush what is queued
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("event queue not fully drained")
	}

	log.Info().Msg("shutdown complete")
	return nil
}
