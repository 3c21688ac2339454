package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgc-network/dgc-indexer/pkg/projection"
	"github.com/dgc-network/dgc-indexer/pkg/version"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Warn("write response", zap.Error(err))
	}
}

// writeError maps engine errors onto HTTP statuses. Not-ready is a
// bootstrapping condition, so it asks the client to retry rather than
// reporting a failure.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, version.ErrNotReady):
		w.Header().Set("Retry-After", "1")
		h.writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "projection not ready, retry shortly"})
	case errors.Is(err, projection.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		h.Logger.Error("query failed", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
