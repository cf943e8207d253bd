package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"

	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	CategoryID  int64           `json:"category_id"`
	CurrencyID  int64           `json:"currency_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        core.Date       `json:"date"`
	Description string          `json:"description"`
}

func (s *Server) transaction(uid int64, req transactionRequest) core.Transaction {
	date := req.Date
	if date.IsZero() {
		date = core.DateOf(s.clock())
	}
	return core.Transaction{
		UserID:      uid,
		CategoryID:  req.CategoryID,
		CurrencyID:  req.CurrencyID,
		Amount:      req.Amount,
		Date:        date,
		Description: sanitizeInput(req.Description),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	f, err := transactionFilter(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), uid, f)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	t, err := s.svc.Transactions.Get(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	t, err := s.svc.Transactions.Create(r.Context(), s.transaction(uid, req))
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.invalidate(uid)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.FieldUserID, uid,
		"id", t.ID,
		"amount_base", t.AmountBase.String())
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	t := s.transaction(uid, req)
	t.ID = id
	t, err = s.svc.Transactions.Update(r.Context(), t)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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
	if err := s.svc.Transactions.Delete(r.Context(), uid, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}
