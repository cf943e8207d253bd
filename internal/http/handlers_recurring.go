package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"

	"github.com/shopspring/decimal"
)

type recurringRequest struct {
	CategoryID  int64           `json:"category_id"`
	CurrencyID  int64           `json:"currency_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Frequency   core.Frequency  `json:"frequency"`
	StartDate   core.Date       `json:"start_date"`
}

type activeRequest struct {
	IsActive bool `json:"is_active"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	items, err := s.svc.Recurring.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list(items))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	start := req.StartDate
	if start.IsZero() {
		start = core.DateOf(s.clock())
	}
	item, err := s.svc.Recurring.Create(r.Context(), core.RecurringTransaction{
		UserID:      uid,
		CategoryID:  req.CategoryID,
		CurrencyID:  req.CurrencyID,
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		Frequency:   req.Frequency,
		StartDate:   start,
		IsActive:    true,
	})
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleSetRecurringActive(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	if err := s.svc.Recurring.SetActive(r.Context(), uid, id, req.IsActive); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Recurring.Delete(r.Context(), uid, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleProcessRecurring fires every due template of the caller once.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, "process", err)
		return
	}
	res, err := s.svc.Processor.ProcessDue(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, "process", err)
		return
	}
	if res.Created > 0 {
		s.invalidate(uid)
	}
	writeJSON(w, http.StatusOK, res)
}
