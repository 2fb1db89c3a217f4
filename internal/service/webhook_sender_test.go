package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KunalPandey-675/oceanResQ/internal/config"
	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/internal/service"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

// chanQueue hands notifications to the sender without Redis.
type chanQueue struct {
	ch chan domain.CriticalReportNotification
}

func newChanQueue() *chanQueue {
	return &chanQueue{ch: make(chan domain.CriticalReportNotification, 8)}
}

func (q *chanQueue) Push(_ context.Context, n domain.CriticalReportNotification) error {
	q.ch <- n
	return nil
}

func (q *chanQueue) Pop(ctx context.Context, _ time.Duration) (domain.CriticalReportNotification, error) {
	select {
	case n := <-q.ch:
		return n, nil
	case <-ctx.Done():
		return domain.CriticalReportNotification{}, e.ErrNotificationQueueEmpty
	}
}

// runSender starts the sender and returns a stop func that waits for it.
func runSender(t *testing.T, s *service.WebhookSender) func() {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("sender did not stop")
		}
	}
}

func TestWebhookSender_Delivers(t *testing.T) {
	received := make(chan domain.CriticalReportNotification, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var n domain.CriticalReportNotification
		if err := json.Unmarshal(body, &n); err != nil || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- n
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	q := newChanQueue()
	metrics := observability.NewMetricsForTesting()
	sender := service.NewWebhookSender(newTestLogger(), config.WebhookConfig{URL: srv.URL}, q, clockwork.NewFakeClock(), metrics)
	stop := runSender(t, sender)
	defer stop()

	want := domain.CriticalReportNotification{
		ReportID:   uuid.New(),
		HazardType: domain.HazardTsunami,
		Severity:   domain.SeverityCritical,
		Priority:   5,
	}
	require.NoError(t, q.Push(context.Background(), want))

	select {
	case got := <-received:
		assert.Equal(t, want.ReportID, got.ReportID)
		assert.Equal(t, domain.HazardTsunami, got.HazardType)
	case <-time.After(5 * time.Second):
		t.Fatalf("webhook not called")
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Notifications.WithLabelValues("delivered")) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebhookSender_RetriesWithBackoff(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	q := newChanQueue()
	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	sender := service.NewWebhookSender(newTestLogger(), config.WebhookConfig{URL: srv.URL}, q, clock, metrics)
	stop := runSender(t, sender)
	defer stop()

	require.NoError(t, q.Push(context.Background(), domain.CriticalReportNotification{ReportID: uuid.New()}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.EqualValues(t, 1, hits.Load())

	clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Notifications.WithLabelValues("delivered")) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 2, hits.Load())
}

func TestWebhookSender_GivesUpAfterThreeAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	q := newChanQueue()
	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	sender := service.NewWebhookSender(newTestLogger(), config.WebhookConfig{URL: srv.URL}, q, clock, metrics)
	stop := runSender(t, sender)
	defer stop()

	require.NoError(t, q.Push(context.Background(), domain.CriticalReportNotification{ReportID: uuid.New()}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, backoff := range []time.Duration{time.Second, 2 * time.Second} {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(backoff)
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Notifications.WithLabelValues("failed")) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 3, hits.Load())
}
