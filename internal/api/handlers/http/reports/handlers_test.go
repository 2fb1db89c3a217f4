package reports_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"github.com/KunalPandey-675/oceanResQ/internal/api/handlers/http/reports"
	mock_reports "github.com/KunalPandey-675/oceanResQ/internal/api/handlers/http/reports/mocks"
	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func addChiURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

type fixture struct {
	reports *mock_reports.MockReports
	nearby  *mock_reports.MockNearbyFinder
	h       *reports.Handler
}

func newFixture(t *testing.T, verbose bool) fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := fixture{
		reports: mock_reports.NewMockReports(ctrl),
		nearby:  mock_reports.NewMockNearbyFinder(ctrl),
	}
	f.h = reports.NewHandler(newTestLogger(), f.reports, f.nearby, verbose)
	return f
}

func TestReportSubmit_JSON_201(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	id := uuid.New()
	f.reports.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.SubmitReportRequest) (*domain.HazardReport, error) {
			if *req.Location.Lat != 13.08 || req.HazardType != domain.HazardRipCurrent || req.Contact.Name != "Ravi" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return &domain.HazardReport{ID: id, Priority: 5, Status: domain.StatusActive}, nil
		}).
		Times(1)

	body := `{"location":{"lat":13.08,"lng":80.27,"details":"Marina Beach"},"hazardType":"Rip Current","severity":"Critical Emergency","description":"strong pull","contact":{"name":"Ravi"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	f.h.ReportSubmit(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d, body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	got := decodeJSON[struct {
		Message  string              `json:"message"`
		ReportID string              `json:"reportId"`
		Report   domain.HazardReport `json:"report"`
	}](t, rr)
	if got.ReportID != id.String() || got.Report.ID != id || got.Message != "Report submitted successfully" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestReportSubmit_Form_201(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	form := url.Values{
		"lat":             {"15.2993"},
		"lng":             {"74.124"},
		"locationDetails": {" Calangute Beach "},
		"hazardType":      {"High Waves"},
		"severity":        {"High Risk"},
		"description":     {"waves over the wall"},
		"contactName":     {"Anita"},
		"contactPhone":    {"+91 98200 00000"},
		"evidence":        {`[{"filename":"a.jpg","url":"/uploads/a.jpg","size":12}]`},
	}

	f.reports.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.SubmitReportRequest) (*domain.HazardReport, error) {
			if *req.Location.Lat != 15.2993 || *req.Location.Lng != 74.124 || req.Location.Details != "Calangute Beach" {
				t.Fatalf("location not parsed: %+v", req.Location)
			}
			if req.Severity != domain.SeverityHigh || req.Contact.Phone != "+91 98200 00000" {
				t.Fatalf("unexpected request: %+v", req)
			}
			if len(req.Evidence) != 1 || req.Evidence[0].URL != "/uploads/a.jpg" {
				t.Fatalf("evidence not parsed: %+v", req.Evidence)
			}
			return &domain.HazardReport{ID: uuid.New()}, nil
		}).
		Times(1)

	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()

	f.h.ReportSubmit(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d, body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
}

func TestReportSubmit_ValidationError_400(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	f.reports.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(nil, e.NewValidationError(
			e.FieldError{Field: "location.lat", Reason: "lat"},
			e.FieldError{Field: "severity", Reason: "required"},
		)).
		Times(1)

	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"location":{"lat":95}}`))
	rr := httptest.NewRecorder()

	f.h.ReportSubmit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
	got := decodeJSON[struct {
		Message string         `json:"message"`
		Fields  []e.FieldError `json:"fields"`
	}](t, rr)
	if len(got.Fields) != 2 || got.Fields[0].Field != "location.lat" || got.Fields[1].Field != "severity" {
		t.Fatalf("unexpected fields: %+v", got.Fields)
	}
}

func TestReportSubmit_InvalidJSON_400(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader("{bad json"))
	rr := httptest.NewRecorder()

	f.h.ReportSubmit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestReportSubmit_OversizedBody_400(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	// no Submit expected
	body := `{"description":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	f.h.ReportSubmit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d", http.StatusBadRequest, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "request body too large") {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestReportList_CapsLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	f.reports.EXPECT().
		List(gomock.Any(), domain.ListReportsRequest{
			Page:      2,
			Limit:     100,
			Status:    domain.StatusActive,
			SortBy:    "priority",
			SortOrder: domain.SortAsc,
		}).
		Return(&domain.ListReportsResponse{Reports: []*domain.HazardReport{}, TotalPages: 1, CurrentPage: 2, Total: 3}, nil).
		Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/reports?page=2&limit=500&status=Active&sortBy=priority&sortOrder=asc", nil)
	rr := httptest.NewRecorder()

	f.h.ReportList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
	got := decodeJSON[map[string]any](t, rr)
	for _, key := range []string{"reports", "totalPages", "currentPage", "total"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing %q in %v", key, got)
		}
	}
}

func TestReportList_Defaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	f.reports.EXPECT().
		List(gomock.Any(), domain.ListReportsRequest{Page: 1, Limit: 10}).
		Return(&domain.ListReportsResponse{Reports: []*domain.HazardReport{}}, nil).
		Times(1)

	rr := httptest.NewRecorder()
	f.h.ReportList(rr, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, rr.Code)
	}
}

func TestReportRecent_OK(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	f.reports.EXPECT().Recent(gomock.Any()).Return([]*domain.HazardReport{{ID: uuid.New()}}, nil).Times(1)

	rr := httptest.NewRecorder()
	f.h.ReportRecent(rr, httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, rr.Code)
	}
	if got := decodeJSON[[]domain.HazardReport](t, rr); len(got) != 1 {
		t.Fatalf("expected one report, got %d", len(got))
	}
}

func TestReportGet_InvalidID_400(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/not-a-uuid", nil)
	req = addChiURLParam(req, "id", "not-a-uuid")
	rr := httptest.NewRecorder()

	f.h.ReportGet(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestReportGet_NotFound_404(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	id := uuid.New()
	f.reports.EXPECT().Get(gomock.Any(), id).Return(nil, e.ErrNotFound).Times(1)

	req := addChiURLParam(httptest.NewRequest(http.MethodGet, "/api/reports/"+id.String(), nil), "id", id.String())
	rr := httptest.NewRecorder()

	f.h.ReportGet(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d got %d", http.StatusNotFound, rr.Code)
	}
	if got := decodeJSON[map[string]string](t, rr); got["message"] != "Report not found" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestReportUpdate_OK(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	id := uuid.New()
	resolved := domain.StatusResolved
	yes := true
	f.reports.EXPECT().
		Update(gomock.Any(), id, domain.UpdateReportRequest{Status: &resolved, Verified: &yes}).
		Return(&domain.HazardReport{ID: id, Status: resolved, Verified: true}, nil).
		Times(1)

	req := httptest.NewRequest(http.MethodPut, "/api/reports/"+id.String(), strings.NewReader(`{"status":"Resolved","verified":true}`))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	f.h.ReportUpdate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
	got := decodeJSON[struct {
		Message string              `json:"message"`
		Report  domain.HazardReport `json:"report"`
	}](t, rr)
	if got.Message != "Report updated successfully" || got.Report.Status != domain.StatusResolved {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestReportUpdate_UnknownField_400(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/reports/"+id.String(), strings.NewReader(`{"status":"Closed","priority":1}`))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	f.h.ReportUpdate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d, body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestReportDelete_OK(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	id := uuid.New()
	f.reports.EXPECT().Delete(gomock.Any(), id).Return(nil).Times(1)

	req := addChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/reports/"+id.String(), nil), "id", id.String())
	rr := httptest.NewRecorder()

	f.h.ReportDelete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, rr.Code)
	}
	if got := decodeJSON[map[string]string](t, rr); got["message"] != "Report deleted successfully" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestReportNearby_DefaultRadius(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	near := &domain.HazardReport{ID: uuid.New()}
	f.nearby.EXPECT().
		Nearby(gomock.Any(), domain.NearbyRequest{Lat: 13.08, Lng: 80.27, RadiusKM: 10, Limit: 20}).
		Return([]domain.NearbyReport{{Report: near, DistanceMeters: 12}}, nil).
		Times(1)

	rr := httptest.NewRecorder()
	f.h.ReportNearby(rr, httptest.NewRequest(http.MethodGet, "/api/reports/location/nearby?lat=13.08&lng=80.27", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d, body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
	got := decodeJSON[[]domain.HazardReport](t, rr)
	if len(got) != 1 || got[0].ID != near.ID {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestReportNearby_MissingCoordinates_400(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	for _, q := range []string{
		"lng=80.27",
		"lat=x&lng=80.27",
		"lat=13&lng=80&radius=far",
		"lat=13&lng=80&radius=Inf",
		"lat=13&lng=80&radius=NaN",
	} {
		rr := httptest.NewRecorder()
		f.h.ReportNearby(rr, httptest.NewRequest(http.MethodGet, "/api/reports/location/nearby?"+q, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected %d got %d", q, http.StatusBadRequest, rr.Code)
		}
	}
}

func TestHandleError_InternalDetailOnlyWhenVerbose(t *testing.T) {
	t.Parallel()

	for _, verbose := range []bool{false, true} {
		f := newFixture(t, verbose)
		f.reports.EXPECT().Recent(gomock.Any()).Return(nil, errors.New("pool exhausted")).Times(1)

		rr := httptest.NewRecorder()
		f.h.ReportRecent(rr, httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected %d got %d", http.StatusInternalServerError, rr.Code)
		}
		want := "internal error"
		if verbose {
			want = "pool exhausted"
		}
		if got := decodeJSON[map[string]string](t, rr); got["message"] != want {
			t.Fatalf("verbose=%v: expected %q got %q", verbose, want, got["message"])
		}
	}
}
