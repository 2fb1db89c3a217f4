package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/internal/service"
	mock_service "github.com/KunalPandey-675/oceanResQ/internal/service/mocks"
	"github.com/KunalPandey-675/oceanResQ/internal/storage/memory"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

var analyticsNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type seedReport struct {
	age        time.Duration
	hazard     domain.HazardType
	severity   domain.Severity
	status     domain.ReportStatus
	place      string
	resolvedAt time.Time
	response   int
}

// seedStore inserts fully formed reports backdated relative to now.
func seedStore(t *testing.T, store *memory.Store, now time.Time, reports ...seedReport) {
	t.Helper()

	for _, s := range reports {
		r := &domain.HazardReport{
			Location:    domain.Location{Lat: 15.5, Lng: 73.8, Details: s.place},
			HazardType:  s.hazard,
			Severity:    s.severity,
			Description: "seeded",
			Status:      s.status,
			Priority:    domain.SeverityToPriority(s.severity),
			Source:      domain.SourceWebForm,
			CreatedAt:   now.Add(-s.age),
		}
		if !s.resolvedAt.IsZero() {
			at, minutes := s.resolvedAt, s.response
			r.ResolvedAt = &at
			r.ResponseTime = &minutes
		}
		require.NoError(t, store.Insert(context.Background(), r))
	}
}

func analyticsFixture(t *testing.T) *memory.Store {
	clock := clockwork.NewFakeClockAt(analyticsNow)
	store := memory.New(clock)
	day := 24 * time.Hour

	seedStore(t, store, analyticsNow,
		seedReport{age: 2 * day, hazard: domain.HazardRipCurrent, severity: domain.SeverityCritical, status: domain.StatusActive, place: "Goa"},
		seedReport{age: 3 * day, hazard: domain.HazardRipCurrent, severity: domain.SeverityHigh, status: domain.StatusResolved, place: "Goa",
			resolvedAt: analyticsNow.Add(-time.Hour), response: 30},
		seedReport{age: 10 * day, hazard: domain.HazardHighWaves, severity: domain.SeverityModerate, status: domain.StatusResolved, place: "Mumbai",
			resolvedAt: analyticsNow.Add(-9 * day), response: 50},
		seedReport{age: 40 * day, hazard: domain.HazardTsunami, severity: domain.SeverityLow, status: domain.StatusUnderReview, place: "Chennai"},
	)
	return store
}

func newAnalyticsService(repo service.ReportRepository, cache service.AnalyticsCache) *service.AnalyticsService {
	return service.NewAnalyticsService(repo, cache, clockwork.NewFakeClockAt(analyticsNow), time.UTC,
		newTestLogger(), observability.NewMetricsForTesting())
}

func TestAnalytics_EmptyStore(t *testing.T) {
	t.Parallel()

	svc := newAnalyticsService(memory.New(clockwork.NewFakeClockAt(analyticsNow)), nil)

	got, err := svc.Analytics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, domain.Timeframe7d, got.Timeframe)
	assert.Equal(t, domain.AnalyticsSummary{}, got.Summary)
	assert.NotNil(t, got.Breakdown.HazardTypes)
	assert.Empty(t, got.Breakdown.HazardTypes)
	assert.NotNil(t, got.Breakdown.Severity)
	assert.NotNil(t, got.Breakdown.Status)
	assert.NotNil(t, got.Breakdown.Geographic)
	assert.NotNil(t, got.Trends.Daily)
	assert.Empty(t, got.Trends.Daily)
}

func TestAnalytics_SevenDayWindow(t *testing.T) {
	t.Parallel()

	svc := newAnalyticsService(analyticsFixture(t), nil)

	got, err := svc.Analytics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, domain.AnalyticsSummary{
		TotalReports:    2,
		ActiveIncidents: 2,
		ResolvedToday:   1,
		AvgResponseTime: 30,
	}, got.Summary)

	assert.Equal(t, []domain.HazardTypeCount{
		{HazardType: domain.HazardRipCurrent, Count: 2, CriticalCount: 1},
	}, got.Breakdown.HazardTypes)

	// groups appear in creation order of their first report
	assert.Equal(t, []domain.SeverityCount{
		{Severity: domain.SeverityHigh, Count: 1},
		{Severity: domain.SeverityCritical, Count: 1},
	}, got.Breakdown.Severity)
	assert.Equal(t, []domain.StatusCount{
		{Status: domain.StatusResolved, Count: 1},
		{Status: domain.StatusActive, Count: 1},
	}, got.Breakdown.Status)

	assert.Equal(t, []domain.LocationCount{
		{Details: "Goa", Count: 2, SeverityBreakdown: []domain.Severity{domain.SeverityHigh, domain.SeverityCritical}},
	}, got.Breakdown.Geographic)

	assert.Equal(t, []domain.DailyCount{
		{Day: domain.DayKey{Year: 2025, Month: 6, Day: 12}, Count: 1},
		{Day: domain.DayKey{Year: 2025, Month: 6, Day: 13}, Count: 1},
	}, got.Trends.Daily)
}

func TestAnalytics_UnknownTimeframeFallsBackTo30d(t *testing.T) {
	t.Parallel()

	svc := newAnalyticsService(analyticsFixture(t), nil)

	got, err := svc.Analytics(context.Background(), "fortnight")
	require.NoError(t, err)

	assert.Equal(t, domain.Timeframe30d, got.Timeframe)
	assert.EqualValues(t, 3, got.Summary.TotalReports)
	assert.EqualValues(t, 40, got.Summary.AvgResponseTime)

	var sum int64
	for _, h := range got.Breakdown.HazardTypes {
		sum += h.Count
	}
	assert.Equal(t, got.Summary.TotalReports, sum)
	assert.Equal(t, domain.HazardRipCurrent, got.Breakdown.HazardTypes[0].HazardType)

	// daily trend stays on the trailing week
	assert.Len(t, got.Trends.Daily, 2)
}

func TestAnalytics_AverageIsZeroWithoutResolutions(t *testing.T) {
	t.Parallel()

	store := memory.New(clockwork.NewFakeClockAt(analyticsNow))
	seedStore(t, store, analyticsNow,
		seedReport{age: time.Hour, hazard: domain.HazardStormSurge, severity: domain.SeverityHigh, status: domain.StatusActive, place: "Puri"},
	)
	svc := newAnalyticsService(store, nil)

	got, err := svc.Analytics(context.Background(), "1y")
	require.NoError(t, err)
	assert.Zero(t, got.Summary.AvgResponseTime)
	assert.EqualValues(t, 1, got.Summary.TotalReports)
}

func TestAnalytics_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReportRepository(ctrl)
	cache := mock_service.NewMockAnalyticsCache(ctrl)

	cached := &domain.AnalyticsReport{Timeframe: domain.Timeframe90d, Summary: domain.AnalyticsSummary{TotalReports: 7}}
	cache.EXPECT().GetAnalytics(gomock.Any(), domain.Timeframe90d).Return(cached, nil).Times(1)

	got, err := newAnalyticsService(repo, cache).Analytics(context.Background(), "90d")
	require.NoError(t, err)
	assert.Same(t, cached, got)
}

func TestAnalytics_CacheMissStoresResult(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockAnalyticsCache(ctrl)
	cache.EXPECT().GetAnalytics(gomock.Any(), domain.Timeframe7d).Return(nil, e.ErrNotFound).Times(1)
	cache.EXPECT().
		SetAnalytics(gomock.Any(), domain.Timeframe7d, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.Timeframe, r *domain.AnalyticsReport) error {
			if r.Summary.TotalReports != 2 {
				t.Fatalf("unexpected cached report: %+v", r.Summary)
			}
			return nil
		}).
		Times(1)

	got, err := newAnalyticsService(analyticsFixture(t), cache).Analytics(context.Background(), "7d")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Summary.TotalReports)
}

func TestAnalytics_CacheErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockAnalyticsCache(ctrl)
	cache.EXPECT().GetAnalytics(gomock.Any(), gomock.Any()).Return(nil, e.ErrInternal).Times(1)
	cache.EXPECT().SetAnalytics(gomock.Any(), gomock.Any(), gomock.Any()).Return(e.ErrInternal).Times(1)

	_, err := newAnalyticsService(analyticsFixture(t), cache).Analytics(context.Background(), "30d")
	require.NoError(t, err)
}

func TestAnalytics_ScanErrorPropagates(t *testing.T) {
	t.Parallel()

	store := analyticsFixture(t)
	svc := newAnalyticsService(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analytics(ctx, "7d")
	require.ErrorIs(t, err, e.ErrCanceled)
}

func TestAnalytics_Export(t *testing.T) {
	t.Parallel()

	svc := newAnalyticsService(analyticsFixture(t), nil)

	got, err := svc.Export(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, domain.Timeframe7d, got.Timeframe)
	assert.True(t, got.Generated.Equal(analyticsNow))
	assert.EqualValues(t, 2, got.Summary.TotalReports)
	assert.Len(t, got.Breakdown.HazardTypes, 1)
}

func TestAnalytics_GeographicTopTenAndTieOrder(t *testing.T) {
	t.Parallel()

	store := memory.New(clockwork.NewFakeClockAt(analyticsNow))

	// scan order follows creation: Other, Tsunami and High Waves are first
	// seen in that order; P11 is the only place with more than one report.
	hazards := []domain.HazardType{domain.HazardOther, domain.HazardTsunami, domain.HazardHighWaves, domain.HazardHighWaves}
	var seeds []seedReport
	for i := range 14 {
		place := fmt.Sprintf("P%02d", min(i, 11))
		seeds = append(seeds, seedReport{
			age:      time.Duration(14-i) * time.Hour,
			hazard:   hazards[i%len(hazards)],
			severity: domain.SeverityModerate,
			status:   domain.StatusActive,
			place:    place,
		})
	}
	seedStore(t, store, analyticsNow, seeds...)

	got, err := newAnalyticsService(store, nil).Analytics(context.Background(), "7d")
	require.NoError(t, err)
	require.EqualValues(t, 14, got.Summary.TotalReports)

	hazardOrder := make([]domain.HazardType, 0, len(got.Breakdown.HazardTypes))
	var sum int64
	for _, h := range got.Breakdown.HazardTypes {
		hazardOrder = append(hazardOrder, h.HazardType)
		sum += h.Count
	}
	assert.Equal(t, []domain.HazardType{domain.HazardHighWaves, domain.HazardOther, domain.HazardTsunami}, hazardOrder)
	assert.EqualValues(t, 6, got.Breakdown.HazardTypes[0].Count)
	assert.EqualValues(t, 4, got.Breakdown.HazardTypes[1].Count)
	assert.EqualValues(t, 4, got.Breakdown.HazardTypes[2].Count)
	assert.Equal(t, got.Summary.TotalReports, sum)

	require.Len(t, got.Breakdown.Geographic, 10)
	places := make([]string, 0, 10)
	for _, p := range got.Breakdown.Geographic {
		places = append(places, p.Details)
	}
	assert.Equal(t, []string{"P11", "P00", "P01", "P02", "P03", "P04", "P05", "P06", "P07", "P08"}, places)
	assert.EqualValues(t, 3, got.Breakdown.Geographic[0].Count)
	assert.Len(t, got.Breakdown.Geographic[0].SeverityBreakdown, 3)
}
