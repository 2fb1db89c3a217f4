package service

import (
	"context"
	"iter"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type ReportRepository interface {
	Insert(ctx context.Context, r *domain.HazardReport) error
	Get(ctx context.Context, id uuid.UUID) (*domain.HazardReport, error)
	Update(ctx context.Context, id uuid.UUID, p domain.ReportPatch) (*domain.HazardReport, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, q domain.ReportQuery) ([]*domain.HazardReport, int64, error)
	FindNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.NearbyReport, error)
	Scan(ctx context.Context, createdAfter *time.Time) iter.Seq2[*domain.HazardReport, error]
	Count(ctx context.Context, f domain.CountFilter) (int64, error)
	Ping(ctx context.Context) error
}

// NotificationQueue carries critical-report alerts to the webhook sender.
// Pop returns e.ErrNotificationQueueEmpty when nothing arrived within timeout.
type NotificationQueue interface {
	Push(ctx context.Context, n domain.CriticalReportNotification) error
	Pop(ctx context.Context, timeout time.Duration) (domain.CriticalReportNotification, error)
}

// AnalyticsCache returns e.ErrNotFound on a miss.
type AnalyticsCache interface {
	GetAnalytics(ctx context.Context, tf domain.Timeframe) (*domain.AnalyticsReport, error)
	SetAnalytics(ctx context.Context, tf domain.Timeframe, report *domain.AnalyticsReport) error
}

type Service struct {
	Reports   *ReportService
	Proximity *ProximityService
	Analytics *AnalyticsService
	Dashboard *DashboardService
	repo      ReportRepository
}

func NewService(
	repo ReportRepository,
	reports *ReportService,
	proximity *ProximityService,
	analytics *AnalyticsService,
	dashboard *DashboardService,
) *Service {
	return &Service{
		Reports:   reports,
		Proximity: proximity,
		Analytics: analytics,
		Dashboard: dashboard,
		repo:      repo,
	}
}

// Ping reports whether the report store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
