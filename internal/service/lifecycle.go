package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
	"github.com/KunalPandey-675/oceanResQ/pkg/validator"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const recentLimit = 10

// ReportService is the single gate for report writes.
type ReportService struct {
	repo    ReportRepository
	queue   NotificationQueue
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReportService builds the lifecycle manager. queue may be nil, in which
// case critical reports are not announced.
func NewReportService(repo ReportRepository, queue NotificationQueue, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *ReportService {
	return &ReportService{
		repo:    repo,
		queue:   queue,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *ReportService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *ReportService) Submit(ctx context.Context, req domain.SubmitReportRequest) (*domain.HazardReport, error) {
	const op = "service.Report.Submit"

	if err := validator.ValidateStruct(req); err != nil {
		s.logger.Debug("submit rejected", slog.String("op", op), slog.Any("error", err))
		return nil, err
	}

	priority := domain.SeverityToPriority(req.Severity)
	if req.Priority != nil {
		priority = *req.Priority
	}
	source := req.Source
	if source == "" {
		source = domain.SourceWebForm
	}

	r := &domain.HazardReport{
		Location: domain.Location{
			Lat:     *req.Location.Lat,
			Lng:     *req.Location.Lng,
			Details: req.Location.Details,
		},
		HazardType:  req.HazardType,
		Severity:    req.Severity,
		Description: req.Description,
		Evidence:    slices.Clone(req.Evidence),
		Contact:     req.Contact,
		Status:      domain.StatusActive,
		Priority:    priority,
		Source:      source,
	}
	if r.Evidence == nil {
		r.Evidence = []domain.Attachment{}
	}

	if err := s.repo.Insert(ctx, r); err != nil {
		return nil, err
	}

	s.metrics.ReportsSubmitted.WithLabelValues(string(r.HazardType), string(r.Severity)).Inc()
	s.logger.Info("report submitted",
		slog.String("op", op),
		slog.String("id", r.ID.String()),
		slog.String("hazard_type", string(r.HazardType)),
		slog.String("severity", string(r.Severity)),
		slog.Int("priority", r.Priority))

	if r.Severity == domain.SeverityCritical {
		s.notify(ctx, r)
	}

	return r, nil
}

// notify never fails the submission; a lost alert is logged and counted.
func (s *ReportService) notify(ctx context.Context, r *domain.HazardReport) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Push(ctx, domain.NewCriticalReportNotification(r)); err != nil {
		s.metrics.Notifications.WithLabelValues("queue_error").Inc()
		s.logger.Error("enqueue critical notification failed",
			slog.String("id", r.ID.String()),
			slog.Any("error", err))
		return
	}
	s.metrics.Notifications.WithLabelValues("queued").Inc()
}

// ChangeStatus accepts any status. Moving to Resolved records the response
// time the first time only.
func (s *ReportService) ChangeStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus, actor string) (*domain.HazardReport, error) {
	if !status.Valid() {
		return nil, e.NewValidationError(e.FieldError{Field: "status", Reason: "enum"})
	}

	s.logger.Info("changing report status",
		slog.String("id", id.String()),
		slog.String("status", string(status)),
		slog.String("actor", actor))

	return s.apply(ctx, id, domain.ReportPatch{Status: &status})
}

func (s *ReportService) Verify(ctx context.Context, id uuid.UUID, verifiedBy string) (*domain.HazardReport, error) {
	yes := true
	p := domain.ReportPatch{Verified: &yes}
	if verifiedBy != "" {
		p.VerifiedBy = &verifiedBy
	}
	return s.apply(ctx, id, p)
}

// Update folds every field of the PUT body into one store write.
func (s *ReportService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateReportRequest) (*domain.HazardReport, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, domain.ReportPatch{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Verified:   req.Verified,
		VerifiedBy: req.VerifiedBy,
	})
}

// apply stamps the derived timestamps onto p and writes it.
func (s *ReportService) apply(ctx context.Context, id uuid.UUID, p domain.ReportPatch) (*domain.HazardReport, error) {
	const op = "service.Report.Update"

	now := s.now()
	if p.Status != nil && *p.Status == domain.StatusResolved {
		p.ResolveAt = &now
	}
	if p.Verified != nil && *p.Verified {
		p.VerifiedAt = &now
	}

	r, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}

	if p.Status != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(*p.Status)).Inc()
	}
	if p.ResolveAt != nil && r.ResolvedAt != nil && r.ResolvedAt.Equal(now) && r.ResponseTime != nil {
		s.metrics.ReportsResolved.Inc()
		s.metrics.ResponseMinutes.Observe(float64(*r.ResponseTime))
		s.logger.Info("report resolved",
			slog.String("op", op),
			slog.String("id", id.String()),
			slog.Int("response_minutes", *r.ResponseTime))
	}

	return r, nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*domain.HazardReport, error) {
	return s.repo.Get(ctx, id)
}

func (s *ReportService) List(ctx context.Context, req domain.ListReportsRequest) (*domain.ListReportsResponse, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	q := domain.ReportQuery{
		Status:     req.Status,
		Severity:   req.Severity,
		HazardType: req.HazardType,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
		Page:       req.Page,
		PageSize:   req.Limit,
	}.Normalize()

	reports, total, err := s.repo.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	pageSize := int64(q.PageSize)
	return &domain.ListReportsResponse{
		Reports:     reports,
		TotalPages:  (total + pageSize - 1) / pageSize,
		CurrentPage: q.Page,
		Total:       total,
	}, nil
}

// Recent returns the newest reports first.
func (s *ReportService) Recent(ctx context.Context) ([]*domain.HazardReport, error) {
	reports, _, err := s.repo.Query(ctx, domain.ReportQuery{
		SortBy:    domain.SortByCreatedAt,
		SortOrder: domain.SortDesc,
		Page:      1,
		PageSize:  recentLimit,
	})
	return reports, err
}

func (s *ReportService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("report deleted", slog.String("id", id.String()))
	return nil
}
