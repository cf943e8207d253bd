package http

import (
	"net/http"
	"strings"

	"budget/internal/core"
	"budget/internal/log"

	"github.com/shopspring/decimal"
)

type categoryRequest struct {
	Name     string `json:"name"`
	IsIncome bool   `json:"is_income"`
	Color    string `json:"color"`
}

type currencyRequest struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"`
}

type rateRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	cats, err := s.svc.Catalog.ListCategories(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list(cats))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := s.svc.Catalog.CreateCategory(r.Context(), core.Category{
		UserID:   uid,
		Name:     sanitizeInput(req.Name),
		IsIncome: req.IsIncome,
		Color:    strings.TrimSpace(req.Color),
	})
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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
	if err := s.svc.Catalog.DeleteCategory(r.Context(), uid, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	curs, err := s.svc.Catalog.ListCurrencies(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list(curs))
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := s.svc.Catalog.CreateCurrency(r.Context(), core.Currency{
		Code:   req.Code,
		Name:   sanitizeInput(req.Name),
		Symbol: sanitizeInput(req.Symbol),
		Rate:   req.Rate,
	})
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleUpdateRate changes future conversions only; stored amount_base
// values keep the rate they were saved with.
func (s *Server) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	c, err := s.svc.Catalog.UpdateRate(r.Context(), r.PathValue("code"), req.Rate)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCurrency(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Catalog.DeleteCurrency(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
