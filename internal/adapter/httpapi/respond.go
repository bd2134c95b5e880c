package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campustrade/market-service/internal/market/domain"
)

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("failed to encode response: %v", err)
	}
}

// respondError maps the domain error taxonomy onto HTTP statuses. State
// conflicts are flagged retryable so clients refetch and resubmit.
func (h *Handler) respondError(w http.ResponseWriter, route string, err error) {
	var status int
	var kind string
	retryable := false

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrForbidden):
		status, kind = http.StatusForbidden, "authorization"
	case errors.Is(err, domain.ErrStateConflict):
		status, kind = http.StatusConflict, "state_conflict"
		retryable = true
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	default:
		status, kind = http.StatusInternalServerError, "internal"
		h.log.Errorf("%s: internal error: %v", route, err)
	}

	if h.metrics != nil {
		h.metrics.APIErrorsTotal.WithLabelValues(route, kind).Inc()
	}
	h.respondJSON(w, status, errorResponse{Error: err.Error(), Kind: kind, Retryable: retryable})
}
