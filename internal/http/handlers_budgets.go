package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"

	"github.com/shopspring/decimal"
)

type budgetRequest struct {
	CategoryID int64           `json:"category_id"`
	CurrencyID int64           `json:"currency_id"`
	Limit      decimal.Decimal `json:"limit"`
	Month      string          `json:"month"`
}

type monthlyBudgetRequest struct {
	CurrencyID  int64           `json:"currency_id"`
	Month       string          `json:"month"`
	IncomePlan  decimal.Decimal `json:"income_plan"`
	ExpensePlan decimal.Decimal `json:"expense_plan"`
	Notes       string          `json:"notes"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	budgets, err := s.svc.Budgets.ListBudgets(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list(budgets))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	month, err := core.ParseMonth(req.Month, s.clock())
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	b, err := s.svc.Budgets.CreateBudget(r.Context(), core.Budget{
		UserID:     uid,
		CategoryID: req.CategoryID,
		CurrencyID: req.CurrencyID,
		Limit:      req.Limit,
		Month:      month,
	})
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
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
	if err := s.svc.Budgets.DeleteBudget(r.Context(), uid, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBudgetReport is not cached: limits convert at the current rate.
func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
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
	lines, err := s.svc.Budgets.CategoryReport(r.Context(), uid, month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, list(lines))
}

func (s *Server) monthlyBudget(uid int64, req monthlyBudgetRequest) (core.MonthlyBudget, error) {
	month, err := core.ParseMonth(req.Month, s.clock())
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	return core.MonthlyBudget{
		UserID:      uid,
		CurrencyID:  req.CurrencyID,
		Month:       month,
		IncomePlan:  req.IncomePlan,
		ExpensePlan: req.ExpensePlan,
		Notes:       sanitizeInput(req.Notes),
	}, nil
}

func (s *Server) handleListMonthlyBudgets(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	plans, err := s.svc.Budgets.ListMonthlyBudgets(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list(plans))
}

func (s *Server) handleCreateMonthlyBudget(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	var req monthlyBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	plan, err := s.monthlyBudget(uid, req)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	plan, err = s.svc.Budgets.CreateMonthlyBudget(r.Context(), plan)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleUpdateMonthlyBudget(w http.ResponseWriter, r *http.Request) {
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
	var req monthlyBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	plan, err := s.monthlyBudget(uid, req)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	plan.ID = id
	plan, err = s.svc.Budgets.UpdateMonthlyBudget(r.Context(), plan)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
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
	summary, err := s.svc.Budgets.MonthlySummary(r.Context(), uid, month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
