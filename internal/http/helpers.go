package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"financepro/internal/core"
	"financepro/internal/syncer"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeSyncError maps the sync failure taxonomy onto HTTP statuses:
// missing endpoint is a precondition failure, transport trouble is a bad
// gateway, and a malformed snapshot is unprocessable.
func writeSyncError(w http.ResponseWriter, err error) {
	var transportErr *syncer.TransportError
	var formatErr *core.FormatError

	switch {
	case errors.Is(err, syncer.ErrNoEndpoint):
		writeError(w, http.StatusPreconditionFailed, "sync endpoint not configured")
	case errors.As(err, &transportErr):
		writeError(w, http.StatusBadGateway, transportErr.Error())
	case errors.As(err, &formatErr):
		writeError(w, http.StatusUnprocessableEntity, formatErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
