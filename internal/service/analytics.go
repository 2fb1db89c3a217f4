package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"

	"github.com/jonboulle/clockwork"
)

const trendWindow = 7 * 24 * time.Hour

type AnalyticsService struct {
	repo    ReportRepository
	cache   AnalyticsCache
	clock   clockwork.Clock
	loc     *time.Location
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAnalyticsService builds the aggregator. cache may be nil; loc decides
// where "today" starts for resolvedToday.
func NewAnalyticsService(repo ReportRepository, cache AnalyticsCache, clock clockwork.Clock, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{
		repo:    repo,
		cache:   cache,
		clock:   clock,
		loc:     loc,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *AnalyticsService) Analytics(ctx context.Context, timeframe string) (*domain.AnalyticsReport, error) {
	tf := domain.ParseTimeframe(timeframe)

	if s.cache != nil {
		cached, err := s.cache.GetAnalytics(ctx, tf)
		switch {
		case err == nil:
			s.metrics.AnalyticsCache.WithLabelValues("hit").Inc()
			return cached, nil
		case errors.Is(err, e.ErrNotFound):
			s.metrics.AnalyticsCache.WithLabelValues("miss").Inc()
		default:
			s.metrics.AnalyticsCache.WithLabelValues("error").Inc()
			s.logger.Warn("analytics cache read failed", slog.String("timeframe", string(tf)), slog.Any("error", err))
		}
	}

	report, err := s.compute(ctx, tf)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAnalytics(ctx, tf, report); err != nil {
			s.logger.Warn("analytics cache write failed", slog.String("timeframe", string(tf)), slog.Any("error", err))
		}
	}

	return report, nil
}

func (s *AnalyticsService) compute(ctx context.Context, tf domain.Timeframe) (*domain.AnalyticsReport, error) {
	started := time.Now()
	defer func() {
		s.metrics.AnalyticsDuration.WithLabelValues("analytics").Observe(time.Since(started).Seconds())
	}()

	now := s.clock.Now()
	start := now.Add(-tf.Duration())
	trendStart := now.Add(-trendWindow)

	from := start
	if trendStart.Before(from) {
		from = trendStart
	}

	window := newWindowStats()
	daily := newDailyCounts()
	for r, err := range s.repo.Scan(ctx, &from) {
		if err != nil {
			return nil, err
		}
		if !r.CreatedAt.Before(start) {
			window.add(r)
		}
		if !r.CreatedAt.Before(trendStart) {
			daily.add(r.CreatedAt)
		}
	}

	active, err := s.repo.Count(ctx, domain.CountFilter{Statuses: domain.OpenStatuses()})
	if err != nil {
		return nil, err
	}

	midnight := startOfDay(now, s.loc)
	resolvedToday, err := s.repo.Count(ctx, domain.CountFilter{
		Statuses:      []domain.ReportStatus{domain.StatusResolved},
		ResolvedAfter: &midnight,
	})
	if err != nil {
		return nil, err
	}

	return &domain.AnalyticsReport{
		Timeframe: tf,
		Summary: domain.AnalyticsSummary{
			TotalReports:    window.total,
			ActiveIncidents: active,
			ResolvedToday:   resolvedToday,
			AvgResponseTime: window.avgResponse(),
		},
		Breakdown: window.breakdown(),
		Trends:    domain.AnalyticsTrends{Daily: daily.chronological()},
	}, nil
}

// Export is Analytics stamped with its generation time.
func (s *AnalyticsService) Export(ctx context.Context, timeframe string) (*domain.AnalyticsExport, error) {
	report, err := s.Analytics(ctx, timeframe)
	if err != nil {
		return nil, err
	}

	return &domain.AnalyticsExport{
		Timeframe: report.Timeframe,
		Generated: s.clock.Now().UTC(),
		Summary:   report.Summary,
		Breakdown: report.Breakdown,
		Trends:    report.Trends,
	}, nil
}
