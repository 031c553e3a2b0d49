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
	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/gateway"
	"github.com/shopmesh/platform/internal/infrastructure/config"
	"github.com/shopmesh/platform/pkg/logger"
)

const (
	serviceName         = "gateway"
	startupCheckTimeout = 5 * time.Second
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.LoadGateway(ctx)
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

	// LoadGateway has already validated the upstream urls
	upstreams, _ := cfg.Upstreams()
	for _, up := range upstreams {
		log.Info().Str("upstream", up.Name).Str("prefix", up.Prefix).Str("url", up.URL.String()).Msg("route registered")
	}

	checkUserService(ctx, upstreams[0], log)

	router := gateway.NewRouter(gateway.Options{
		Upstreams:     upstreams,
		Timeout:       cfg.UpstreamTimeout,
		Version:       cfg.Version,
		ExposeDetails: !cfg.IsProduction(),
		Log:           log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("gateway starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("gateway failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("gateway shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("shutdown complete")
}

// checkUserService logs whether the user service answers its health probe.
// The user service may still be starting, so failure is only a warning.
func checkUserService(ctx context.Context, users config.Upstream, log zerolog.Logger) bool {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	target := users.URL.JoinPath("/api/health").String()
	if err := gateway.CheckUpstream(ctx, http.DefaultClient, target); err != nil {
		log.Warn().Err(err).Msg("user service not reachable at startup")
		return false
	}
	log.Info().Msg("user service reachable")
	return true
}
