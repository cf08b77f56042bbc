package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "CART_STORE", "PRODUCT_STORE", "OTEL_ENABLED", "SERVER_READ_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "memory", cfg.Store.CartBackend)
	assert.Equal(t, "memory", cfg.Store.ProductBackend)
	assert.True(t, cfg.OTLP.Enabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CART_STORE", "Redis")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("SERVER_WRITE_TIMEOUT", "3s")
	t.Setenv("SEED_PRODUCTS", "not-a-bool")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Store.CartBackend)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Store.SeedProducts)
}
