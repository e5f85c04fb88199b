package http

import (
	"fmt"
	"net/http"
	"time"

	"financepro/internal/report"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Totals(s.store.Snapshot()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	key := fmt.Sprintf("categories:%d", s.store.Revision())
	if data, found := s.categoryCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Category cache hit", "key", key)
		writeJSON(w, http.StatusOK, data)
		return
	}

	data := report.ExpensesByCategory(s.store.Snapshot())
	s.categoryCache.Set(key, data)
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	// The series depends on the current month as well as the data, so the
	// key carries both.
	key := fmt.Sprintf("monthly:%d:%d-%d", s.store.Revision(), now.Year(), int(now.Month()))
	if data, found := s.seriesCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Series cache hit", "key", key)
		writeJSON(w, http.StatusOK, data)
		return
	}

	data := report.MonthlySeries(s.store.Snapshot(), now)
	s.seriesCache.Set(key, data)
	writeJSON(w, http.StatusOK, data)
}

// handleCDTOverview is never cached: active status depends on the wall clock
// and must be re-derived on every read.
func (s *Server) handleCDTOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.CDTOverviewAt(s.store.Snapshot(), time.Now()))
}
