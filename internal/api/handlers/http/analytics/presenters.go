package analytics

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	h.log(r).Error("handler error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	switch {
	case errors.Is(err, e.ErrUnsupportedExportFormat):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
	case errors.Is(err, e.ErrDeadline):
		h.writeJSON(w, http.StatusGatewayTimeout, map[string]string{"message": "request timed out"})
	default:
		msg := "internal error"
		if h.verbose {
			msg = err.Error()
		}
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": msg})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response failed", slog.Any("error", err))
	}
}
