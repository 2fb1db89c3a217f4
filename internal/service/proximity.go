package service

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
	"github.com/KunalPandey-675/oceanResQ/pkg/geo"
)

const (
	DefaultNearbyLimit = 20
	MaxNearbyLimit     = 20
)

type ProximityService struct {
	repo    ReportRepository
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewProximityService(repo ReportRepository, logger *slog.Logger, metrics *observability.Metrics) *ProximityService {
	return &ProximityService{repo: repo, logger: logger, metrics: metrics}
}

// Nearby returns reports within req.RadiusKM of the point, closest first.
// A non-positive radius yields an empty list; a non-finite one is rejected.
func (s *ProximityService) Nearby(ctx context.Context, req domain.NearbyRequest) ([]domain.NearbyReport, error) {
	v := e.NewValidationError()
	if !geo.ValidCoordinates(req.Lat, 0) {
		v.Add("lat", "lat")
	}
	if !geo.ValidCoordinates(0, req.Lng) {
		v.Add("lng", "lng")
	}
	if math.IsNaN(req.RadiusKM) || math.IsInf(req.RadiusKM, 0) {
		v.Add("radius", "finite")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	s.metrics.NearbyQueries.Inc()

	if req.RadiusKM <= 0 {
		s.metrics.NearbyResults.Observe(0)
		return []domain.NearbyReport{}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	// past half the circumference every point on the sphere is in range
	radius := min(req.RadiusKM*1000, geo.MaxDistanceMeters)

	found, err := s.repo.FindNear(ctx, req.Lat, req.Lng, radius, limit)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(found, func(a, b domain.NearbyReport) int {
		return cmp.Compare(a.DistanceMeters, b.DistanceMeters)
	})
	if len(found) > limit {
		found = found[:limit]
	}
	if found == nil {
		found = []domain.NearbyReport{}
	}

	s.metrics.NearbyResults.Observe(float64(len(found)))
	s.logger.Debug("nearby search",
		slog.Float64("lat", req.Lat),
		slog.Float64("lng", req.Lng),
		slog.Float64("radius_km", req.RadiusKM),
		slog.Int("results", len(found)))

	return found, nil
}
