package services

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"

	"golang.org/x/sync/errgroup"
)

// Dashboard is the landing view for the current month.
type Dashboard struct {
	Month             core.Date                 `json:"month"`
	BudgetType        core.BudgetType           `json:"budget_type"`
	IncomeCategories  []core.Category           `json:"income_categories"`
	ExpenseCategories []core.Category           `json:"expense_categories"`
	MonthlySummary    *core.MonthlySummary      `json:"monthly_summary,omitempty"`
	CategoryReport    []core.CategoryBudgetLine `json:"category_report,omitempty"`
}

type DashboardService struct {
	store       Store
	budgets     *BudgetService
	preferences *PreferencesService
	clock       Clock
}

func NewDashboardService(store Store, budgets *BudgetService, preferences *PreferencesService, clock Clock) *DashboardService {
	if clock == nil {
		clock = SystemClock
	}
	return &DashboardService{
		store:       store,
		budgets:     budgets,
		preferences: preferences,
		clock:       clock,
	}
}

// Load ensures preferences exist, then shows the monthly summary (monthly
// mode, when a plan exists for the current month) or the per-category
// report (category mode).
func (s *DashboardService) Load(ctx context.Context, userID int64) (Dashboard, error) {
	prefs, err := s.preferences.Ensure(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("ensure preferences: %w", err)
	}

	d := Dashboard{
		Month:      core.MonthStart(s.clock()),
		BudgetType: prefs.BudgetType,
	}

	var cats []core.Category
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cats, err = s.store.ListCategories(gctx, userID); err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.loadBudgetView(gctx, userID, &d)
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	for _, c := range cats {
		if c.IsIncome {
			d.IncomeCategories = append(d.IncomeCategories, c)
		} else {
			d.ExpenseCategories = append(d.ExpenseCategories, c)
		}
	}
	return d, nil
}

// loadBudgetView fills the summary or report section selected by the
// budget type. It writes only those fields of d.
func (s *DashboardService) loadBudgetView(ctx context.Context, userID int64, d *Dashboard) error {
	switch d.BudgetType {
	case core.BudgetTypeCategory:
		report, err := s.budgets.CategoryReport(ctx, userID, d.Month)
		if err != nil {
			return fmt.Errorf("category report: %w", err)
		}
		d.CategoryReport = report
	default:
		summary, err := s.budgets.MonthlySummary(ctx, userID, d.Month)
		switch {
		case err == nil:
			d.MonthlySummary = &summary
		case !errors.Is(err, core.ErrNotFound):
			return fmt.Errorf("monthly summary: %w", err)
		}
	}
	return nil
}
