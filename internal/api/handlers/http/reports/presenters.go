package reports

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

type messageResponse struct {
	Message string `json:"message"`
}

func message(s string) messageResponse {
	return messageResponse{Message: s}
}

type validationResponse struct {
	Message string         `json:"message"`
	Fields  []e.FieldError `json:"fields"`
}

type submitResponse struct {
	Message  string               `json:"message"`
	ReportID uuid.UUID            `json:"reportId"`
	Report   *domain.HazardReport `json:"report"`
}

type updateResponse struct {
	Message string               `json:"message"`
	Report  *domain.HazardReport `json:"report"`
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	l := h.log(r)

	l.Error("handler error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	var ve *e.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusBadRequest, validationResponse{Message: "validation failed", Fields: ve.Fields})
	case errors.Is(err, e.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, message("Report not found"))
	case errors.Is(err, e.ErrInvalidCoordinates):
		h.writeJSON(w, http.StatusBadRequest, message(err.Error()))
	case errors.Is(err, e.ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, message("invalid input"))
	case errors.Is(err, e.ErrConflict), errors.Is(err, e.ErrUniqueViolation):
		h.writeJSON(w, http.StatusConflict, message("conflict"))
	case errors.Is(err, e.ErrDeadline):
		h.writeJSON(w, http.StatusGatewayTimeout, message("request timed out"))
	default:
		msg := "internal error"
		if h.verbose {
			msg = err.Error()
		}
		h.writeJSON(w, http.StatusInternalServerError, message(msg))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response failed", slog.Any("error", err))
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
