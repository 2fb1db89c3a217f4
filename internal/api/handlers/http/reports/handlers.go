package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultRadiusKM = 10
	maxNearby       = 20
	maxFormMemory   = 10 << 20
	maxBodyBytes    = 1 << 20
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Reports interface {
	Submit(ctx context.Context, req domain.SubmitReportRequest) (*domain.HazardReport, error)
	List(ctx context.Context, req domain.ListReportsRequest) (*domain.ListReportsResponse, error)
	Recent(ctx context.Context) ([]*domain.HazardReport, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.HazardReport, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateReportRequest) (*domain.HazardReport, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NearbyFinder interface {
	Nearby(ctx context.Context, req domain.NearbyRequest) ([]domain.NearbyReport, error)
}

type Handler struct {
	logger  *slog.Logger
	Reports Reports
	Nearby  NearbyFinder
	verbose bool
}

// NewHandler wires the report endpoints. verbose exposes internal error
// text in 500 responses.
func NewHandler(logger *slog.Logger, reports Reports, nearby NearbyFinder, verbose bool) *Handler {
	return &Handler{
		logger:  logger,
		Reports: reports,
		Nearby:  nearby,
		verbose: verbose,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) ReportSubmit(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ReportSubmit", slog.String("remote", r.RemoteAddr))

	req, err := decodeSubmit(w, r)
	if err != nil {
		l.Warn("invalid submit body", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, message(err.Error()))
		return
	}

	report, err := h.Reports.Submit(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("report submitted", slog.String("id", report.ID.String()))
	h.writeJSON(w, http.StatusCreated, submitResponse{
		Message:  "Report submitted successfully",
		ReportID: report.ID,
		Report:   report,
	})
}

func (h *Handler) ReportList(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ReportList", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	q := r.URL.Query()
	req := domain.ListReportsRequest{
		Page:       parseInt(q.Get("page"), 1),
		Limit:      parseInt(q.Get("limit"), defaultPageSize),
		Status:     domain.ReportStatus(q.Get("status")),
		Severity:   domain.Severity(q.Get("severity")),
		HazardType: domain.HazardType(q.Get("hazardType")),
		SortBy:     q.Get("sortBy"),
		SortOrder:  domain.SortOrder(q.Get("sortOrder")),
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
		l.Warn("limit capped", slog.Int("limit", req.Limit))
	}

	resp, err := h.Reports.List(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("reports listed", slog.Int("count", len(resp.Reports)), slog.Int64("total", resp.Total))
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ReportRecent(w http.ResponseWriter, r *http.Request) {
	h.log(r).Debug("ReportRecent", slog.String("remote", r.RemoteAddr))

	reports, err := h.Reports.Recent(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) ReportGet(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ReportGet", slog.String("remote", r.RemoteAddr))

	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	report, err := h.Reports.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ReportUpdate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ReportUpdate", slog.String("remote", r.RemoteAddr))

	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateReportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, message("invalid JSON: "+err.Error()))
		return
	}

	report, err := h.Reports.Update(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("report updated", slog.String("id", id.String()), slog.String("status", string(report.Status)))
	h.writeJSON(w, http.StatusOK, updateResponse{Message: "Report updated successfully", Report: report})
}

func (h *Handler) ReportDelete(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ReportDelete", slog.String("remote", r.RemoteAddr))

	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	if err := h.Reports.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, message("Report deleted successfully"))
}

// ReportNearby answers with plain reports, closest first.
func (h *Handler) ReportNearby(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ReportNearby", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		h.handleError(w, r, fmt.Errorf("lat and lng must be numbers: %w", e.ErrInvalidCoordinates))
		return
	}

	radius := float64(defaultRadiusKM)
	if s := q.Get("radius"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			h.writeJSON(w, http.StatusBadRequest, message("radius must be a number of kilometres"))
			return
		}
		radius = v
	}

	found, err := h.Nearby.Nearby(r.Context(), domain.NearbyRequest{
		Lat:      lat,
		Lng:      lng,
		RadiusKM: radius,
		Limit:    maxNearby,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	out := make([]*domain.HazardReport, 0, len(found))
	for _, n := range found {
		out = append(out, n.Report)
	}

	l.Info("nearby reports", slog.Float64("radius_km", radius), slog.Int("count", len(out)))
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) reportID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.log(r).Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, message("invalid report id"))
		return uuid.Nil, false
	}
	return id, true
}

// decodeSubmit accepts a JSON body or the flat form fields of the web form.
func decodeSubmit(w http.ResponseWriter, r *http.Request) (domain.SubmitReportRequest, error) {
	var req domain.SubmitReportRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return req, fmt.Errorf("invalid form: %w", err)
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("invalid form: %w", err)
		}
	default:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON: %w", err)
		}
		return req, nil
	}

	f := r.PostForm
	req = domain.SubmitReportRequest{
		Location: domain.LocationInput{
			Lat:     parseFloatPtr(f.Get("lat")),
			Lng:     parseFloatPtr(f.Get("lng")),
			Details: strings.TrimSpace(f.Get("locationDetails")),
		},
		HazardType:  domain.HazardType(f.Get("hazardType")),
		Severity:    domain.Severity(f.Get("severity")),
		Description: strings.TrimSpace(f.Get("description")),
		Contact: domain.Contact{
			Name:  f.Get("contactName"),
			Phone: f.Get("contactPhone"),
			Email: f.Get("contactEmail"),
		},
		Source: domain.ReportSource(f.Get("source")),
	}
	if ev := f.Get("evidence"); ev != "" {
		if err := json.Unmarshal([]byte(ev), &req.Evidence); err != nil {
			return req, fmt.Errorf("evidence must be a JSON array: %w", err)
		}
	}
	return req, nil
}
