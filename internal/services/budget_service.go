package services

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
)

// BudgetService manages per-category and monthly budgets and compares them
// against actual transactions.
type BudgetService struct {
	store Store
}

func NewBudgetService(store Store) *BudgetService {
	return &BudgetService{store: store}
}

func (s *BudgetService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Limit = b.Limit.Round(core.AmountPlaces)
	b.Month = core.MonthStart(b.Month.Time)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := s.store.GetCategory(ctx, b.UserID, b.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Budget{}, fmt.Errorf("%w: category %d", core.ErrMissingCategory, b.CategoryID)
		}
		return core.Budget{}, err
	}
	if err := s.checkCurrency(ctx, b.CurrencyID); err != nil {
		return core.Budget{}, err
	}
	return s.store.CreateBudget(ctx, b)
}

func (s *BudgetService) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

func (s *BudgetService) DeleteBudget(ctx context.Context, userID, id int64) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

// CategoryReport evaluates every per-category budget of the month in
// declaration order.
func (s *BudgetService) CategoryReport(ctx context.Context, userID int64, month core.Date) ([]core.CategoryBudgetLine, error) {
	budgets, err := s.store.ListBudgetsForMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	from, to := core.MonthRange(month.Time)
	categories := make(map[int64]core.Category)
	currencies := make(map[int64]core.Currency)

	lines := make([]core.CategoryBudgetLine, 0, len(budgets))
	for _, b := range budgets {
		cat, ok := categories[b.CategoryID]
		if !ok {
			if cat, err = s.store.GetCategory(ctx, userID, b.CategoryID); err != nil {
				return nil, fmt.Errorf("budget %d category: %w", b.ID, err)
			}
			categories[b.CategoryID] = cat
		}
		cur, ok := currencies[b.CurrencyID]
		if !ok {
			if cur, err = s.store.GetCurrency(ctx, b.CurrencyID); err != nil {
				return nil, fmt.Errorf("budget %d currency: %w", b.ID, err)
			}
			currencies[b.CurrencyID] = cur
		}

		spent, err := s.store.SumAmountBase(ctx, core.SumFilter{
			UserID:     userID,
			CategoryID: b.CategoryID,
			From:       from,
			To:         to,
		})
		if err != nil {
			return nil, fmt.Errorf("budget %d spent: %w", b.ID, err)
		}
		lines = append(lines, core.NewCategoryBudgetLine(b, cat, cur, spent))
	}
	return lines, nil
}

// CreateMonthlyBudget rejects a second plan for the same month with
// core.ErrMonthlyBudgetExists.
func (s *BudgetService) CreateMonthlyBudget(ctx context.Context, b core.MonthlyBudget) (core.MonthlyBudget, error) {
	b = normalizePlan(b)
	if err := b.Validate(); err != nil {
		return core.MonthlyBudget{}, err
	}
	if err := s.checkCurrency(ctx, b.CurrencyID); err != nil {
		return core.MonthlyBudget{}, err
	}

	_, err := s.store.FindMonthlyBudget(ctx, b.UserID, b.Month)
	switch {
	case err == nil:
		return core.MonthlyBudget{}, core.ErrMonthlyBudgetExists
	case !errors.Is(err, core.ErrNotFound):
		return core.MonthlyBudget{}, fmt.Errorf("check existing monthly budget: %w", err)
	}
	return s.store.CreateMonthlyBudget(ctx, b)
}

// UpdateMonthlyBudget edits plans, currency, month and notes of an existing plan.
func (s *BudgetService) UpdateMonthlyBudget(ctx context.Context, b core.MonthlyBudget) (core.MonthlyBudget, error) {
	if _, err := s.store.GetMonthlyBudget(ctx, b.UserID, b.ID); err != nil {
		return core.MonthlyBudget{}, err
	}
	b = normalizePlan(b)
	if err := b.Validate(); err != nil {
		return core.MonthlyBudget{}, err
	}
	if err := s.checkCurrency(ctx, b.CurrencyID); err != nil {
		return core.MonthlyBudget{}, err
	}
	if err := s.store.UpdateMonthlyBudget(ctx, b); err != nil {
		return core.MonthlyBudget{}, err
	}
	return b, nil
}

func (s *BudgetService) ListMonthlyBudgets(ctx context.Context, userID int64) ([]core.MonthlyBudget, error) {
	return s.store.ListMonthlyBudgets(ctx, userID)
}

// MonthlySummary finds the user's plan for month and compares it with actual
// totals. It returns core.ErrNotFound when no plan exists.
func (s *BudgetService) MonthlySummary(ctx context.Context, userID int64, month core.Date) (core.MonthlySummary, error) {
	b, err := s.store.FindMonthlyBudget(ctx, userID, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return s.Summarize(ctx, b)
}

// Summarize compares b with the income and expense totals of b's own month.
func (s *BudgetService) Summarize(ctx context.Context, b core.MonthlyBudget) (core.MonthlySummary, error) {
	cur, err := s.store.GetCurrency(ctx, b.CurrencyID)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly budget currency: %w", err)
	}

	from, to := core.MonthRange(b.Month.Time)
	income, err := s.store.SumAmountBase(ctx, core.SumFilter{UserID: b.UserID, Type: core.OpIncome, From: from, To: to})
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("actual income: %w", err)
	}
	expenses, err := s.store.SumAmountBase(ctx, core.SumFilter{UserID: b.UserID, Type: core.OpExpense, From: from, To: to})
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("actual expenses: %w", err)
	}

	return core.NewMonthlySummary(b, cur, income, expenses), nil
}

func (s *BudgetService) checkCurrency(ctx context.Context, id int64) error {
	if _, err := s.store.GetCurrency(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: currency %d", core.ErrMissingCurrency, id)
		}
		return err
	}
	return nil
}

func normalizePlan(b core.MonthlyBudget) core.MonthlyBudget {
	b.Month = core.MonthStart(b.Month.Time)
	b.IncomePlan = b.IncomePlan.Round(core.AmountPlaces)
	b.ExpensePlan = b.ExpensePlan.Round(core.AmountPlaces)
	return b
}
