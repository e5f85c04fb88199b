package http

import (
	"net/http"
	"net/url"
	"strings"

	"financepro/internal/amqp"
	applog "financepro/internal/log"
	"financepro/internal/syncer"
)

type pushResponse struct {
	Queued  bool                `json:"queued"`
	Receipt *syncer.PushReceipt `json:"receipt,omitempty"`
	Mode    string              `json:"mode,omitempty"`
}

type pullResponse struct {
	Expenses int    `json:"expenses"`
	Incomes  int    `json:"incomes"`
	CDTs     int    `json:"cdts"`
	LastSync string `json:"lastSync,omitempty"`
}

// handleSyncPush hands the push to the queue when one is configured;
// otherwise it pushes inline and reports the receipt. A push through the
// queue comes back 202 before the worker has done anything.
func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	if s.publisher != nil {
		if err := s.publisher.PublishSyncRequest(r.Context(), amqp.ReasonManual); err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to queue sync request",
				applog.FieldError, err,
				applog.FieldOperation, applog.OpPush)
			writeError(w, http.StatusInternalServerError, "failed to queue sync request")
			return
		}
		writeJSON(w, http.StatusAccepted, pushResponse{Queued: true})
		return
	}

	receipt, err := s.target.Push(r.Context(), s.store.Snapshot())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Sync push failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpPush)
		writeSyncError(w, err)
		return
	}

	s.store.SetLastSync(r.Context(), receipt.DispatchedAt)
	s.logger.InfoContext(r.Context(), "Sync push completed",
		applog.FieldOperation, applog.OpPush,
		"mode", receipt.Mode(),
		applog.FieldStatusCode, receipt.StatusCode)
	writeJSON(w, http.StatusOK, pushResponse{Receipt: &receipt, Mode: receipt.Mode()})
}

// handleSyncPull fetches the remote snapshot and installs it wholesale. On
// any failure the local ledger is left exactly as it was.
func (s *Server) handleSyncPull(w http.ResponseWriter, r *http.Request) {
	snap, err := s.target.Pull(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Sync pull failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpPull)
		writeSyncError(w, err)
		return
	}

	s.store.Replace(r.Context(), snap)
	s.logger.InfoContext(r.Context(), "Sync pull completed",
		applog.FieldOperation, applog.OpPull,
		"expenses", len(snap.Expenses),
		"incomes", len(snap.Incomes),
		"cdts", len(snap.CDTs))
	writeJSON(w, http.StatusOK, pullResponse{
		Expenses: len(snap.Expenses),
		Incomes:  len(snap.Incomes),
		CDTs:     len(snap.CDTs),
		LastSync: snap.LastSync,
	})
}

type syncURLPayload struct {
	SyncURL string `json:"syncUrl"`
}

func (s *Server) handleGetSyncURL(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.SyncURL(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read sync URL",
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to read sync URL")
		return
	}
	writeJSON(w, http.StatusOK, syncURLPayload{SyncURL: u})
}

// handleSetSyncURL stores the endpoint. An empty string clears it, which
// disables sync until a new URL is set.
func (s *Server) handleSetSyncURL(w http.ResponseWriter, r *http.Request) {
	var payload syncURLPayload
	if err := decodeBody(w, r, &payload); err != nil {
		return
	}

	endpoint := strings.TrimSpace(payload.SyncURL)
	if endpoint != "" {
		parsed, err := url.Parse(endpoint)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			writeError(w, http.StatusUnprocessableEntity, "sync URL must be a valid http or https URL")
			return
		}
	}

	if err := s.store.SetSyncURL(r.Context(), endpoint); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to store sync URL",
			applog.FieldError, err,
			applog.FieldEndpoint, endpoint)
		writeError(w, http.StatusInternalServerError, "failed to store sync URL")
		return
	}

	s.logger.InfoContext(r.Context(), "Sync URL updated",
		applog.FieldEndpoint, endpoint)
	writeJSON(w, http.StatusOK, syncURLPayload{SyncURL: endpoint})
}
