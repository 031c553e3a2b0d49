// Package gateway is the single public entry point of the platform. It
// forwards /api/<service> requests to the owning backend and adds CORS,
// request ids, request logging and metrics on the way.
package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/api"
	"github.com/shopmesh/platform/internal/api/handler"
	"github.com/shopmesh/platform/internal/api/metrics"
	"github.com/shopmesh/platform/internal/api/middleware"
	"github.com/shopmesh/platform/internal/infrastructure/config"
)

const (
	metricsSubsystem = "gateway"
	dialTimeout      = 5 * time.Second
)

// Options configure the gateway router.
type Options struct {
	Upstreams []config.Upstream
	// Timeout bounds the wait for an upstream's response headers.
	Timeout       time.Duration
	Version       string
	ExposeDetails bool
	Log           zerolog.Logger
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds the gateway's Echo instance with one proxy per upstream.
func NewRouter(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(opts.Log, opts.ExposeDetails)

	promCfg := echoprometheus.MiddlewareConfig{Subsystem: metricsSubsystem}
	promHandler := echoprometheus.NewHandler()
	if opts.Registry != nil {
		promCfg.Registerer = opts.Registry
		promHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Registry})
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, echo.HeaderXRequestID,
		},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLogger(opts.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Own endpoints ---
	health := handler.NewHealthHandler(opts.Version, upstreamPingers(opts.Upstreams, opts.Timeout), opts.ExposeDetails)
	e.GET("/api/health", health.Liveness)
	e.GET("/api/health/ready", health.Readiness)
	e.GET("/api/metrics", promHandler)

	// --- Proxied services ---
	transport := newTransport(opts.Timeout)
	for _, up := range opts.Upstreams {
		e.Group(up.Prefix, proxy(up, transport, opts.Log))
	}

	return e
}

func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout}).DialContext,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
	}
}

// proxy forwards everything under the upstream's prefix unchanged. A failed
// round trip is answered with 503 in the standard error envelope.
func proxy(up config.Upstream, transport http.RoundTripper, log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.ProxyWithConfig(echomiddleware.ProxyConfig{
		Balancer: echomiddleware.NewRoundRobinBalancer([]*echomiddleware.ProxyTarget{
			{Name: up.Name, URL: up.URL},
		}),
		Transport: transport,
		ErrorHandler: func(c echo.Context, err error) error {
			metrics.UpstreamErrorsTotal.WithLabelValues(up.Name).Inc()
			log.Error().Err(err).
				Str("upstream", up.Name).
				Str("path", c.Request().URL.Path).
				Msg("upstream request failed")
			return echo.NewHTTPError(http.StatusServiceUnavailable,
				fmt.Sprintf("%s service unavailable", up.Name)).SetInternal(err)
		},
	})
}

// upstreamPingers lets the readiness probe check each backend's liveness.
func upstreamPingers(ups []config.Upstream, timeout time.Duration) map[string]handler.Pinger {
	client := &http.Client{Timeout: timeout}
	out := make(map[string]handler.Pinger, len(ups))
	for _, up := range ups {
		target := up.URL.JoinPath("/api/health").String()
		out[up.Name] = handler.PingFunc(func(ctx context.Context) error {
			return CheckUpstream(ctx, client, target)
		})
	}
	return out
}

// CheckUpstream GETs url and fails unless it answers 2xx.
func CheckUpstream(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s answered %d", url, resp.StatusCode)
	}
	return nil
}
