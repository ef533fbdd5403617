package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the application configuration, loadable from a .env file,
// environment variables (SHOPLIST_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"View API listen address"`
	Gateway   GatewayConfig
	Catalog   CatalogConfig
	Images    ImagesConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// GatewayConfig points at the catalog API.
type GatewayConfig struct {
	BaseURL string        `default:"https://dummyjson.com" usage:"Catalog gateway base URL" flag:"gateway-url"`
	Timeout time.Duration `default:"0" usage:"Catalog gateway request timeout, 0 for none" flag:"gateway-timeout"`
}

// CatalogConfig controls the product store.
type CatalogConfig struct {
	PageSize int `default:"10" usage:"Products per page" flag:"page-size"`
}

// ImagesConfig controls the image prefetch cache.
type ImagesConfig struct {
	TTL           time.Duration `default:"5m"  usage:"How long probed image sizes stay valid"`
	SweepInterval time.Duration `default:"1m"  usage:"Interval between stale entry sweeps"`
	Concurrency   int           `default:"4"   usage:"Parallel image prefetches per page"`
	FetchTimeout  time.Duration `default:"10s" usage:"Timeout for a single image download"`
}

// RateLimitConfig controls the per-client limiter on gateway-backed routes.
type RateLimitConfig struct {
	Max    int           `default:"60" usage:"Max gateway-backed requests per window, 0 disables"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env, then environment variables, flags and YAML config
// files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(aconfig.Config{
		EnvPrefix: "SHOPLIST",
		Files:     []string{"config.yaml", "/etc/shoplist/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Gateway.BaseURL == "":
		return errors.New("gateway base URL is required: set SHOPLIST_GATEWAY_BASE_URL")
	case c.Gateway.Timeout < 0:
		return errors.Errorf("gateway timeout must not be negative, got %s", c.Gateway.Timeout)
	case c.Catalog.PageSize < 1:
		return errors.Errorf("page size must be positive, got %d", c.Catalog.PageSize)
	case c.Images.TTL <= 0:
		return errors.Errorf("image TTL must be positive, got %s", c.Images.TTL)
	case c.Images.SweepInterval <= 0:
		return errors.Errorf("image sweep interval must be positive, got %s", c.Images.SweepInterval)
	}
	return nil
}

// applyPlatformDefaults honours the PORT variable set by hosting platforms
// when no explicit address was configured.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
