package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"

	goredis "github.com/redis/go-redis/v9"
)

const analyticsKeyPrefix = "analytics:"

// AnalyticsCache keeps one serialized analytics response per timeframe.
type AnalyticsCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewAnalyticsCache(client goredis.Cmdable, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

func analyticsKey(tf domain.Timeframe) string {
	return analyticsKeyPrefix + string(tf)
}

func (c *AnalyticsCache) GetAnalytics(ctx context.Context, tf domain.Timeframe) (*domain.AnalyticsReport, error) {
	const op = "redis.AnalyticsCache.Get"

	data, err := c.client.Get(ctx, analyticsKey(tf)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return nil, e.Wrap(op, err)
	}

	var report domain.AnalyticsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &report, nil
}

func (c *AnalyticsCache) SetAnalytics(ctx context.Context, tf domain.Timeframe, report *domain.AnalyticsReport) error {
	const op = "redis.AnalyticsCache.Set"

	b, err := json.Marshal(report)
	if err != nil {
		return e.Wrap(op, err)
	}
	if err := c.client.Set(ctx, analyticsKey(tf), b, c.ttl).Err(); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}
