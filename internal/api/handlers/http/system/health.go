package system

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
)

const (
	serviceName  = "ResQ API"
	pingTimeout  = 2 * time.Second
	dbConnected  = "connected"
	dbDown       = "disconnected"
	statusOK     = "OK"
	statusDegrad = "DEGRADED"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	logger *slog.Logger
	db     Pinger
	clock  clockwork.Clock
}

func NewHandler(logger *slog.Logger, db Pinger, clock clockwork.Clock) *Handler {
	return &Handler{logger: logger, db: db, clock: clock}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Database  string    `json:"database"`
}

// SystemHealth always answers 200; a failed store ping only degrades the
// reported status.
func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    statusOK,
		Timestamp: h.clock.Now().UTC(),
		Service:   serviceName,
		Database:  dbConnected,
	}
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health: store ping failed",
			slog.String("request_id", chimw.GetReqID(r.Context())),
			slog.Any("error", err))
		resp.Status = statusDegrad
		resp.Database = dbDown
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
