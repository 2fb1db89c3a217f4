package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/config"
	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"

	"github.com/jonboulle/clockwork"
)

const (
	popTimeout        = 5 * time.Second
	webhookMaxRetries = 3
)

// WebhookSender drains the notification queue and POSTs each critical
// report alert to the configured webhook.
type WebhookSender struct {
	logger  *slog.Logger
	cfg     config.WebhookConfig
	queue   NotificationQueue
	clock   clockwork.Clock
	metrics *observability.Metrics
	http    *http.Client
}

func NewWebhookSender(logger *slog.Logger, cfg config.WebhookConfig, q NotificationQueue, clock clockwork.Clock, metrics *observability.Metrics) *WebhookSender {
	return &WebhookSender{
		logger:  logger,
		cfg:     cfg,
		queue:   q,
		clock:   clock,
		metrics: metrics,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Run blocks until ctx is done.
func (s *WebhookSender) Run(ctx context.Context) {
	s.logger.Info("webhook sender started", slog.String("url", s.cfg.URL))
	defer s.http.CloseIdleConnections()

	for {
		if ctx.Err() != nil {
			s.logger.Info("webhook sender stopped", slog.String("reason", ctx.Err().Error()))
			return
		}

		n, err := s.queue.Pop(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, e.ErrNotificationQueueEmpty) || ctx.Err() != nil {
				continue
			}
			s.logger.Error("notification pop failed", slog.Any("error", err))
			s.wait(ctx, 500*time.Millisecond)
			continue
		}

		s.logger.Info("sending critical report webhook", slog.String("report_id", n.ReportID.String()))
		if s.sendWithRetry(ctx, n) {
			s.metrics.Notifications.WithLabelValues("delivered").Inc()
		} else {
			s.metrics.Notifications.WithLabelValues("failed").Inc()
		}
	}
}

// wait sleeps on the injected clock; it returns false if ctx ended first.
func (s *WebhookSender) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}

func (s *WebhookSender) sendWithRetry(ctx context.Context, n domain.CriticalReportNotification) bool {
	body, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("marshal notification failed", slog.String("error", err.Error()))
		return false
	}

	for attempt := 1; attempt <= webhookMaxRetries; attempt++ {
		if ctx.Err() != nil {
			s.logger.Info("stop retries due to context cancel")
			return false
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
		if err != nil {
			s.logger.Error("create webhook request failed", slog.String("error", err.Error()))
			return false
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return true
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		reason := "unknown"
		if err != nil {
			reason = err.Error()
		} else if resp != nil {
			reason = resp.Status
		}

		s.logger.Warn("webhook failed",
			slog.Int("attempt", attempt),
			slog.String("url", s.cfg.URL),
			slog.String("reason", reason),
		)

		if attempt < webhookMaxRetries && !s.wait(ctx, time.Duration(attempt)*time.Second) {
			return false
		}
	}
	return false
}
