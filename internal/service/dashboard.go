package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardPeriod      = 30 * 24 * time.Hour
	changeNew            = "new"
	changeNeedsAttention = "Requiring attention"
)

type DashboardService struct {
	repo    ReportRepository
	clock   clockwork.Clock
	loc     *time.Location
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewDashboardService(repo ReportRepository, clock clockwork.Clock, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{repo: repo, clock: clock, loc: loc, logger: logger, metrics: metrics}
}

// Dashboard compares the trailing 30 days with the 30 days before them.
func (s *DashboardService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	started := time.Now()
	defer func() {
		s.metrics.AnalyticsDuration.WithLabelValues("dashboard").Observe(time.Since(started).Seconds())
	}()

	now := s.clock.Now()
	curStart := now.Add(-dashboardPeriod)
	prevStart := curStart.Add(-dashboardPeriod)
	midnight := startOfDay(now, s.loc)
	yesterday := midnight.AddDate(0, 0, -1)

	var (
		cur, prev                         *windowStats
		active, resolvedToday, resolvedYd int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cur, err = collect(gctx, s.repo, curStart, nil)
		return err
	})
	g.Go(func() (err error) {
		prev, err = collect(gctx, s.repo, prevStart, &curStart)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.repo.Count(gctx, domain.CountFilter{Statuses: domain.OpenStatuses()})
		return err
	})
	g.Go(func() (err error) {
		resolvedToday, err = s.repo.Count(gctx, domain.CountFilter{
			Statuses:      []domain.ReportStatus{domain.StatusResolved},
			ResolvedAfter: &midnight,
		})
		return err
	})
	g.Go(func() (err error) {
		resolvedYd, err = s.repo.Count(gctx, domain.CountFilter{
			Statuses:       []domain.ReportStatus{domain.StatusResolved},
			ResolvedAfter:  &yesterday,
			ResolvedBefore: &midnight,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard aggregation failed", slog.Any("error", err))
		return nil, err
	}

	curBreakdown := cur.breakdown()
	trends := make([]domain.HazardTrend, 0, len(curBreakdown.HazardTypes))
	for _, h := range curBreakdown.HazardTypes {
		before, _ := prev.hazards.get(h.HazardType)
		trends = append(trends, domain.HazardTrend{
			HazardType: h.HazardType,
			Count:      h.Count,
			Change:     percentChange(h.Count, before.Count),
		})
	}

	return &domain.Dashboard{
		Summary: domain.DashboardSummary{
			TotalReports: domain.DashboardCard{
				Value:  cur.total,
				Change: percentChange(cur.total, prev.total),
			},
			ActiveIncidents: domain.DashboardCard{
				Value:  active,
				Change: changeNeedsAttention,
			},
			ResolvedToday: domain.DashboardCard{
				Value:  resolvedToday,
				Change: percentChange(resolvedToday, resolvedYd),
			},
			AvgResponseTime: domain.DashboardCard{
				Value:  cur.avgResponse(),
				Change: percentChange(cur.avgResponse(), prev.avgResponse()),
			},
		},
		HazardAnalytics: trends,
	}, nil
}

// percentChange formats (current-previous)/previous as "+12%", "-3%" or
// "0%". With no previous value it is "new" for growth and "0%" otherwise.
func percentChange(current, previous int64) string {
	if previous == 0 {
		if current > 0 {
			return changeNew
		}
		return "0%"
	}
	pct := int64(math.Round(float64(current-previous) / float64(previous) * 100))
	if pct > 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}
