package services

import (
	"context"
	"fmt"

	"budget/internal/core"

	"golang.org/x/sync/errgroup"
)

// AnalyticsService builds read-only expense reports.
type AnalyticsService struct {
	store Store
}

func NewAnalyticsService(store Store) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// MonthReport breaks the month's expenses down by category and attaches
// the all-time monthly expense trend.
func (s *AnalyticsService) MonthReport(ctx context.Context, userID int64, month core.Date) (core.AnalyticsReport, error) {
	month = core.MonthStart(month.Time)
	from, to := core.MonthRange(month.Time)

	var (
		byCategory []core.CategoryTotal
		trend      []core.MonthTotal
		months     []core.Date
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if byCategory, err = s.store.SumByCategory(gctx, userID, from, to, false); err != nil {
			return fmt.Errorf("expenses by category: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if trend, err = s.store.MonthlyTotals(gctx, userID, core.OpExpense); err != nil {
			return fmt.Errorf("monthly trend: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if months, err = s.store.TransactionMonths(gctx, userID); err != nil {
			return fmt.Errorf("available months: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.AnalyticsReport{}, err
	}

	return core.NewAnalyticsReport(month, byCategory, trend, months), nil
}

// History summarizes every month by currency and kind, newest first, with
// yearly totals in the base currency.
func (s *AnalyticsService) History(ctx context.Context, userID int64) (core.History, error) {
	var (
		rows    []core.MonthCurrencyTotal
		budgets []core.MonthlyBudget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if rows, err = s.store.MonthlyCurrencyTotals(gctx, userID); err != nil {
			return fmt.Errorf("monthly currency totals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if budgets, err = s.store.ListMonthlyBudgets(gctx, userID); err != nil {
			return fmt.Errorf("monthly budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.History{}, err
	}

	return core.BuildHistory(rows, budgets), nil
}
