package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/config"

	"github.com/redis/go-redis/v9"
)

// Redis owns the client shared by the analytics cache and the critical
// report queue.
type Redis struct {
	Client *redis.Client
	logger *slog.Logger
}

// clientOptions maps RedisConfig onto go-redis options. The queue blocks in
// BRPOP, which go-redis runs past ReadTimeout on its own, so ReadTimeout only
// bounds the cache calls.
func clientOptions(c config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

func NewRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Redis, error) {
	opts := clientOptions(cfg.Redis)
	rdb := redis.NewClient(opts)

	pingTimeout := opts.DialTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping Redis",
			slog.String("addr", opts.Addr),
			slog.String("error", err.Error()))
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	logger.Info("Connected to Redis successfully",
		slog.String("addr", opts.Addr),
		slog.Int("db", opts.DB),
		slog.Int("pool_size", rdb.Options().PoolSize))

	return &Redis{Client: rdb, logger: logger}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close logs pool usage before closing so leaked connections show up in the
// shutdown logs.
func (r *Redis) Close() error {
	st := r.Client.PoolStats()
	r.logger.Info("Closing Redis",
		slog.Uint64("total_conns", uint64(st.TotalConns)),
		slog.Uint64("idle_conns", uint64(st.IdleConns)),
		slog.Uint64("timeouts", uint64(st.Timeouts)))
	return r.Client.Close()
}
