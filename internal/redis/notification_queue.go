package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"

	"github.com/redis/go-redis/v9"
)

const NotificationQueueKey = "notifications:critical"

// NotificationQueue is a Redis list: LPUSH on submit, BRPOP in the sender.
type NotificationQueue struct {
	client redis.Cmdable
	key    string
}

func NewNotificationQueue(client redis.Cmdable, key string) *NotificationQueue {
	return &NotificationQueue{client: client, key: key}
}

func (q *NotificationQueue) Push(ctx context.Context, n domain.CriticalReportNotification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return e.Wrap("redis.NotificationQueue.Push", err)
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

func (q *NotificationQueue) Pop(ctx context.Context, timeout time.Duration) (domain.CriticalReportNotification, error) {
	var n domain.CriticalReportNotification

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return n, e.ErrNotificationQueueEmpty
		}
		return n, err
	}
	if len(res) < 2 {
		return n, e.ErrNotificationQueueEmpty
	}
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		return n, e.Wrap("redis.NotificationQueue.Pop", err)
	}
	return n, nil
}
