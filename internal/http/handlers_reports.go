package http

import (
	"net/http"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
)

type preferencesRequest struct {
	BudgetType core.BudgetType `json:"budget_type"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	d, err := s.svc.Dashboard.Load(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	month, err := s.month(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}

	key := cache.Key(uid, "analytics", core.MonthKey(month.Time))
	if report, ok := s.reports.Get(key); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Analytics cache hit", log.FieldMonth, core.MonthKey(month.Time))
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.svc.Analytics.MonthReport(r.Context(), uid, month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	s.reports.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}

	key := cache.Key(uid, "history")
	if h, ok := s.history.Get(key); ok {
		writeJSON(w, http.StatusOK, h)
		return
	}

	h, err := s.svc.Analytics.History(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	s.history.Set(key, h)
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	prefs, err := s.svc.Preferences.Ensure(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var req preferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	prefs, err := s.svc.Preferences.SetBudgetType(r.Context(), uid, req.BudgetType)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
