package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "SHOPLIST",
		SkipFlags: true,
		SkipFiles: true,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, "https://dummyjson.com", cfg.Gateway.BaseURL)
	assert.Zero(t, cfg.Gateway.Timeout)
	assert.Equal(t, 10, cfg.Catalog.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.Images.TTL)
	assert.Equal(t, 4, cfg.Images.Concurrency)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SHOPLIST_ADDR", "127.0.0.1:9000")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestLoadConfig_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Gateway: GatewayConfig{BaseURL: "https://dummyjson.com"},
			Catalog: CatalogConfig{PageSize: 10},
			Images:  ImagesConfig{TTL: time.Minute, SweepInterval: time.Minute},
		}
	}
	require.NoError(t, func() error { c := valid(); return c.validate() }())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "no base url", mutate: func(c *Config) { c.Gateway.BaseURL = "" }, want: "base URL"},
		{name: "negative timeout", mutate: func(c *Config) { c.Gateway.Timeout = -time.Second }, want: "timeout"},
		{name: "zero page size", mutate: func(c *Config) { c.Catalog.PageSize = 0 }, want: "page size"},
		{name: "zero ttl", mutate: func(c *Config) { c.Images.TTL = 0 }, want: "TTL"},
		{name: "zero sweep", mutate: func(c *Config) { c.Images.SweepInterval = 0 }, want: "sweep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
