package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KunalPandey-675/oceanResQ/internal/config"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(config.RedisConfig{
		Addr:         "cache:6380",
		Password:     "secret",
		DB:           2,
		PoolSize:     32,
		DialTimeout:  750 * time.Millisecond,
		ReadTimeout:  time.Second,
		WriteTimeout: 2 * time.Second,
	})

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 32, opts.PoolSize)
	assert.Equal(t, 750*time.Millisecond, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Equal(t, 2*time.Second, opts.WriteTimeout)
}

func TestClientOptions_ZeroKeepsLibraryDefaults(t *testing.T) {
	opts := clientOptions(config.RedisConfig{Addr: "localhost:6379"})

	assert.Zero(t, opts.PoolSize)
	assert.Zero(t, opts.DialTimeout)
	assert.Zero(t, opts.ReadTimeout)
}
