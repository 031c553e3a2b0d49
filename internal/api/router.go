package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/api/handler"
	"github.com/shopmesh/platform/internal/api/middleware"
	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

const metricsSubsystem = "user_service"

// Deps are the collaborators the user service router is built from.
type Deps struct {
	Service ports.AuthService
	Tokens  ports.TokenVerifier
	// Health is checked by the readiness probe, keyed by dependency name.
	Health  map[string]handler.Pinger
	Version string
	Log     zerolog.Logger
	// ExposeDetails adds the underlying error text to error responses.
	ExposeDetails bool
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.ExposeDetails)

	promCfg := echoprometheus.MiddlewareConfig{Subsystem: metricsSubsystem}
	promHandler := echoprometheus.NewHandler()
	if d.Registry != nil {
		promCfg.Registerer = d.Registry
		promHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry})
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Service)
	userHandler := handler.NewUserHandler(d.Service)
	healthHandler := handler.NewHealthHandler(d.Version, d.Health, d.ExposeDetails)
	authenticate := middleware.Authenticate(d.Tokens, d.Log)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager)

	// --- Probes and metrics (no auth required) ---
	e.GET("/api/health", healthHandler.Liveness)
	e.GET("/api/health/ready", healthHandler.Readiness)
	e.GET("/api/metrics", promHandler)

	users := e.Group("/api/users")

	// --- Public auth routes ---
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)

	// --- Authenticated routes ---
	users.POST("/change-password", authHandler.ChangePassword, authenticate)
	users.GET("/profile", authHandler.Profile, authenticate)
	users.PUT("/:id/profile", userHandler.UpdateProfile, authenticate, middleware.SelfOrPrivileged("id"))

	// --- Administration ---
	users.GET("", userHandler.List, authenticate, staff)
	users.GET("/:id", userHandler.Get, authenticate, staff)
	users.PUT("/:id", userHandler.Update, authenticate, staff)
	users.PUT("/:id/role", userHandler.UpdateRole, authenticate, middleware.RequireRole(domain.RoleAdmin))
	users.DELETE("/:id", userHandler.Delete, authenticate, staff)

	return e
}
