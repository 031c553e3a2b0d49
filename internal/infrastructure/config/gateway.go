package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// GatewayConfig is the API gateway configuration. Upstreams other than the
// user service are optional and only routed when set.
type GatewayConfig struct {
	Port            string        `env:"PORT,             default=8080"`
	Host            string        `env:"HOST,             default=0.0.0.0"`
	Env             string        `env:"ENV"`
	NodeEnv         string        `env:"NODE_ENV,         default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	Version         string        `env:"APP_VERSION,      default=1.0.0"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT, default=30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	UserServiceURL       string `env:"USER_SERVICE_URL,       default=http://localhost:3000"`
	PaymentsServiceURL   string `env:"PAYMENTS_SERVICE_URL"`
	SalesServiceURL      string `env:"SALES_SERVICE_URL"`
	PurchasingServiceURL string `env:"PURCHASING_SERVICE_URL"`
	InventoryServiceURL  string `env:"INVENTORY_SERVICE_URL"`
	CustomerServiceURL   string `env:"CUSTOMER_SERVICE_URL"`
}

// Upstream is one routed backend.
type Upstream struct {
	Name   string
	Prefix string
	URL    *url.URL
}

// LoadGateway reads the gateway configuration from environment variables.
func LoadGateway(ctx context.Context) (*GatewayConfig, error) {
	return loadGateway(ctx, envconfig.OsLookuper())
}

func loadGateway(ctx context.Context, l envconfig.Lookuper) (*GatewayConfig, error) {
	var cfg GatewayConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Env = resolveEnv(cfg.Env, cfg.NodeEnv)

	if _, err := cfg.Upstreams(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upstreams returns the configured backends, user service first.
func (c *GatewayConfig) Upstreams() ([]Upstream, error) {
	candidates := []struct {
		name, prefix, raw string
	}{
		{"users", "/api/users", c.UserServiceURL},
		{"payments", "/api/payments", c.PaymentsServiceURL},
		{"sales", "/api/sales", c.SalesServiceURL},
		{"purchasing", "/api/purchasing", c.PurchasingServiceURL},
		{"inventory", "/api/inventory", c.InventoryServiceURL},
		{"customers", "/api/customers", c.CustomerServiceURL},
	}

	var (
		out  []Upstream
		errs []error
	)
	for _, cand := range candidates {
		if cand.raw == "" {
			continue
		}
		u, err := url.Parse(cand.raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid %s service url %q", cand.name, cand.raw))
			continue
		}
		out = append(out, Upstream{Name: cand.name, Prefix: cand.prefix, URL: u})
	}
	if c.UserServiceURL == "" {
		errs = append(errs, errors.New("USER_SERVICE_URL is required"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return out, nil
}

func (c *GatewayConfig) IsProduction() bool { return c.Env == EnvProduction }

func (c *GatewayConfig) Addr() string { return c.Host + ":" + c.Port }
