package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KunalPandey-675/oceanResQ/internal/api"
	"github.com/KunalPandey-675/oceanResQ/internal/config"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/internal/redis"
	"github.com/KunalPandey-675/oceanResQ/internal/service"
	"github.com/KunalPandey-675/oceanResQ/internal/storage/memory"
	"github.com/KunalPandey-675/oceanResQ/internal/storage/postgres"
)

type Components struct {
	logger     *slog.Logger
	HttpServer *api.Server
	Service    *service.Service
	Postgres   *postgres.Postgres     // nil with STORE_DRIVER=memory
	Redis      *redis.Redis           // nil with REDIS_DISABLED
	Webhook    *service.WebhookSender // nil unless WebhookEnabled
}

// InitComponents connects the configured store and Redis, then builds the
// services and the HTTP server. Background work bound to ctx (rate limiter
// janitor) starts here; the webhook sender is started by the caller.
func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	c := &Components{logger: logger}

	loc, err := cfg.Analytics.Location()
	if err != nil {
		return nil, fmt.Errorf("analytics timezone: %w", err)
	}

	repo, pg, err := OpenStore(ctx, cfg, clock, logger)
	if err != nil {
		return nil, err
	}
	c.Postgres = pg

	var (
		queue service.NotificationQueue
		cache service.AnalyticsCache
	)
	if !cfg.Redis.Disabled {
		logger.Info("Initializing Redis")
		rdb, err := redis.NewRedis(ctx, cfg, logger)
		if err != nil {
			c.ShutdownAll()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		c.Redis = rdb
		cache = redis.NewAnalyticsCache(rdb.Client, cfg.Analytics.CacheTTL)
		if cfg.WebhookEnabled() {
			q := redis.NewNotificationQueue(rdb.Client, redis.NotificationQueueKey)
			queue = q
			c.Webhook = service.NewWebhookSender(logger, cfg.Webhook, q, clock, metrics)
		}
	}

	c.Service = service.NewService(repo,
		service.NewReportService(repo, queue, clock, logger, metrics),
		service.NewProximityService(repo, logger, metrics),
		service.NewAnalyticsService(repo, cache, clock, loc, logger, metrics),
		service.NewDashboardService(repo, clock, loc, logger, metrics),
	)

	c.HttpServer = api.NewServer(ctx, cfg, logger, c.Service, metrics, prometheus.DefaultGatherer, clock)
	logger.Info("Initialized server",
		slog.String("store", cfg.Store.Driver),
		slog.Bool("analytics_cache", cache != nil),
		slog.Bool("webhook", c.Webhook != nil))

	return c, nil
}

// OpenStore opens the report store named by STORE_DRIVER. The returned
// *postgres.Postgres is nil for the memory driver; the caller closes it.
func OpenStore(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (service.ReportRepository, *postgres.Postgres, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("Using in-memory report store; data is lost on restart")
		return memory.New(clock), nil, nil
	}

	logger.Info("Initializing Postgres")
	pg, err := postgres.NewPostgres(ctx, cfg, clock, logger)
	if err != nil {
		logger.Error("Failed to init postgres", slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to init postgres: %w", err)
	}
	return pg.Reports, pg, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Component shutdown started")

	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
