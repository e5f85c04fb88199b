package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"financepro/internal/core"
	applog "financepro/internal/log"
)

// Request bodies are capped well above any realistic ledger size.
const maxBodyBytes = 10 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return err
	}
	return nil
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(w, r, &e); err != nil {
		return
	}

	stored, err := s.store.AddExpense(r.Context(), e)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.logger.InfoContext(r.Context(), "Expense created",
		applog.FieldRecordID, stored.ID,
		applog.FieldAmount, stored.Amount.String(),
		"category", stored.Category)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing record id")
		return
	}
	s.store.DeleteExpense(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if err := decodeBody(w, r, &in); err != nil {
		return
	}

	stored, err := s.store.AddIncome(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.logger.InfoContext(r.Context(), "Income created",
		applog.FieldRecordID, stored.ID,
		applog.FieldAmount, stored.Amount.String(),
		"source", stored.Source)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing record id")
		return
	}
	s.store.DeleteIncome(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateCDT(w http.ResponseWriter, r *http.Request) {
	var c core.CDT
	if err := decodeBody(w, r, &c); err != nil {
		return
	}

	stored, err := s.store.AddCDT(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.logger.InfoContext(r.Context(), "CDT created",
		applog.FieldRecordID, stored.ID,
		applog.FieldAmount, stored.Amount.String(),
		"bank", stored.Bank)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleDeleteCDT(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing record id")
		return
	}
	s.store.DeleteCDT(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset(r.Context())
	s.logger.InfoContext(r.Context(), "Ledger reset",
		applog.FieldOperation, applog.OpReset)
	w.WriteHeader(http.StatusNoContent)
}

// handleExport serves the full dataset as a downloadable backup file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := core.EncodeSnapshotIndented(s.store.Snapshot())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export encoding failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpExport)
		writeError(w, http.StatusInternalServerError, "failed to encode snapshot")
		return
	}

	filename := fmt.Sprintf("financepro_backup_%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport replaces the whole ledger with an uploaded backup. The upload
// must carry all three record collections; anything else is rejected and the
// current data stays untouched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	snap, err := core.DecodeSnapshot(body)
	if err != nil {
		var formatErr *core.FormatError
		if errors.As(err, &formatErr) {
			writeError(w, http.StatusUnprocessableEntity, formatErr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.store.Replace(r.Context(), snap)
	s.logger.InfoContext(r.Context(), "Ledger imported",
		applog.FieldOperation, applog.OpImport,
		"expenses", len(snap.Expenses),
		"incomes", len(snap.Incomes),
		"cdts", len(snap.CDTs))
	writeJSON(w, http.StatusOK, importResult{
		Expenses: len(snap.Expenses),
		Incomes:  len(snap.Incomes),
		CDTs:     len(snap.CDTs),
	})
}

type importResult struct {
	Expenses int `json:"expenses"`
	Incomes  int `json:"incomes"`
	CDTs     int `json:"cdts"`
}
