// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Cart.SessionTTL)
	assert.Equal(t, "local-", cfg.Cart.LocalIDPrefix)
	assert.Equal(t, 5*time.Second, cfg.Poller.Interval)
	assert.Equal(t, "orders:events", cfg.Poller.EventChannel)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("CART_SESSION_TTL", "1h")
	t.Setenv("ORDER_EVENT_CHANNEL", "orders:test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Poller.Interval)
	assert.Equal(t, time.Hour, cfg.Cart.SessionTTL)
	assert.Equal(t, "orders:test", cfg.Poller.EventChannel)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.JWT.Secret = "too-short"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Poller.Interval = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Cart.LocalIDPrefix = ""
	assert.Error(t, cfg.Validate())
}

func TestConnectionStringHelpers(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname="+cfg.Database.Name)
	assert.Equal(t, cfg.Redis.Host+":"+cfg.Redis.Port, cfg.GetRedisAddr())
}
