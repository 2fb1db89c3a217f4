package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ":5000", cfg.Http.Port)
	assert.Equal(t, 10*time.Second, cfg.Http.ShutdownTimeout)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.True(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, 30*time.Second, cfg.Analytics.CacheTTL)
	assert.Equal(t, 10, cfg.RateLimit.RPS)
	assert.Equal(t, 0, cfg.Redis.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.Redis.ReadTimeout)
	assert.False(t, cfg.WebhookEnabled())
	assert.True(t, cfg.Verbose())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("HTTP_PORT", ":9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("ANALYTICS_CACHE_TTL", "1m")
	t.Setenv("ANALYTICS_TIMEZONE", "Asia/Kolkata")
	t.Setenv("WEBHOOK_URL", "http://alerts.local/hook")
	t.Setenv("REDIS_POOL_SIZE", "32")
	t.Setenv("REDIS_DIAL_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Http.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, 32, cfg.Redis.PoolSize)
	assert.Equal(t, 750*time.Millisecond, cfg.Redis.DialTimeout)
	assert.Equal(t, time.Minute, cfg.Analytics.CacheTTL)
	assert.False(t, cfg.Verbose())
	// Alerts ride the Redis queue, so no Redis means no alerts.
	assert.False(t, cfg.WebhookEnabled())

	loc, err := cfg.Analytics.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port without colon": {"HTTP_PORT": "8080"},
		"unknown driver":     {"STORE_DRIVER": "mongo"},
		"bad timezone":       {"ANALYTICS_TIMEZONE": "Mars/Olympus"},
		"zero rps":           {"RATE_LIMIT_RPS": "0"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
