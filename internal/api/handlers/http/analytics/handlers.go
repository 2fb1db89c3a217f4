package analytics

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

const (
	formatJSON     = "json"
	formatCSV      = "csv"
	exportFilename = "ResQ-analytics.csv"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Analytics interface {
	Analytics(ctx context.Context, timeframe string) (*domain.AnalyticsReport, error)
	Export(ctx context.Context, timeframe string) (*domain.AnalyticsExport, error)
}

type Dashboarder interface {
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
}

type Handler struct {
	logger    *slog.Logger
	Analytics Analytics
	Dashboard Dashboarder
	verbose   bool
}

func NewHandler(logger *slog.Logger, analytics Analytics, dashboard Dashboarder, verbose bool) *Handler {
	return &Handler{
		logger:    logger,
		Analytics: analytics,
		Dashboard: dashboard,
		verbose:   verbose,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) AnalyticsGet(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AnalyticsGet", slog.String("query", r.URL.RawQuery))

	report, err := h.Analytics.Analytics(r.Context(), r.URL.Query().Get("timeframe"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("analytics served",
		slog.String("timeframe", string(report.Timeframe)),
		slog.Int64("total", report.Summary.TotalReports))
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) DashboardGet(w http.ResponseWriter, r *http.Request) {
	h.log(r).Debug("DashboardGet")

	dash, err := h.Dashboard.Dashboard(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) AnalyticsExport(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AnalyticsExport", slog.String("query", r.URL.RawQuery))

	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatCSV {
		h.handleError(w, r, fmt.Errorf("%w: %q", e.ErrUnsupportedExportFormat, format))
		return
	}

	export, err := h.Analytics.Export(r.Context(), r.URL.Query().Get("timeframe"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("analytics exported", slog.String("format", format), slog.String("timeframe", string(export.Timeframe)))

	if format == formatJSON {
		h.writeJSON(w, http.StatusOK, export)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename)
	w.WriteHeader(http.StatusOK)
	if err := writeCSV(w, export); err != nil {
		l.Error("write csv failed", slog.Any("error", err))
	}
}

func writeCSV(w http.ResponseWriter, x *domain.AnalyticsExport) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Metric", "Value"},
		{"Timeframe", string(x.Timeframe)},
		{"Generated", x.Generated.Format(time.RFC3339)},
		{"Total Reports", strconv.FormatInt(x.Summary.TotalReports, 10)},
		{"Active Incidents", strconv.FormatInt(x.Summary.ActiveIncidents, 10)},
		{"Resolved Today", strconv.FormatInt(x.Summary.ResolvedToday, 10)},
		{"Avg Response Time (min)", strconv.FormatInt(x.Summary.AvgResponseTime, 10)},
	}
	for _, hc := range x.Breakdown.HazardTypes {
		rows = append(rows, []string{"Hazard: " + string(hc.HazardType), strconv.FormatInt(hc.Count, 10)})
	}

	if err := cw.WriteAll(rows); err != nil {
		return e.Wrap("analytics.writeCSV", err)
	}
	return nil
}
