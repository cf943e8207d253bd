package services

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
)

func TestBudgetService_CategoryReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewBudgetService(e.store)
	may := core.NewDate(2024, 5, 1)

	foodBudget, err := svc.CreateBudget(ctx, core.Budget{UserID: testUser, CategoryID: e.food.ID, CurrencyID: e.byn.ID, Limit: dec("100"), Month: core.NewDate(2024, 5, 20)})
	if err != nil {
		t.Fatalf("CreateBudget(food) error = %v", err)
	}
	if _, err := svc.CreateBudget(ctx, core.Budget{UserID: testUser, CategoryID: e.rent.ID, CurrencyID: e.usd.ID, Limit: dec("50"), Month: may}); err != nil {
		t.Fatalf("CreateBudget(rent) error = %v", err)
	}

	e.add(t, e.food, e.byn, "70", core.NewDate(2024, 5, 1))
	e.add(t, e.food, e.byn, "50", core.NewDate(2024, 5, 31))
	e.add(t, e.food, e.byn, "999", core.NewDate(2024, 6, 1))
	e.add(t, e.food, e.byn, "999", core.NewDate(2024, 4, 30))

	lines, err := svc.CategoryReport(ctx, testUser, may)
	if err != nil {
		t.Fatalf("CategoryReport() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}

	food := lines[0]
	if food.BudgetID != foodBudget.ID || food.Category.Name != "Food" {
		t.Errorf("lines[0] = %+v, want the food budget first", food)
	}
	if !food.Spent.Equal(dec("120")) || !food.Left.Equal(dec("-20")) || !food.Exceeded {
		t.Errorf("food = spent %s left %s exceeded %v, want 120 -20 true", food.Spent, food.Left, food.Exceeded)
	}

	rent := lines[1]
	if !rent.Spent.IsZero() || !rent.LimitBase.Equal(dec("160")) || rent.Exceeded {
		t.Errorf("rent = spent %s limit_base %s exceeded %v, want 0 160 false", rent.Spent, rent.LimitBase, rent.Exceeded)
	}
}

func TestBudgetService_CreateBudgetValidation(t *testing.T) {
	e := newEnv(t)
	svc := NewBudgetService(e.store)
	ctx := context.Background()

	tests := []struct {
		name string
		b    core.Budget
		want error
	}{
		{"zero limit", core.Budget{UserID: testUser, CategoryID: e.food.ID, CurrencyID: e.byn.ID, Month: core.NewDate(2024, 5, 1)}, core.ErrInvalidAmount},
		{"unknown category", core.Budget{UserID: testUser, CategoryID: 404, CurrencyID: e.byn.ID, Limit: dec("1"), Month: core.NewDate(2024, 5, 1)}, core.ErrMissingCategory},
		{"unknown currency", core.Budget{UserID: testUser, CategoryID: e.food.ID, CurrencyID: 404, Limit: dec("1"), Month: core.NewDate(2024, 5, 1)}, core.ErrMissingCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateBudget(ctx, tt.b); !errors.Is(err, tt.want) {
				t.Errorf("CreateBudget() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBudgetService_MonthlySummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewBudgetService(e.store)

	if _, err := svc.CreateMonthlyBudget(ctx, core.MonthlyBudget{
		UserID: testUser, CurrencyID: e.byn.ID, Month: core.NewDate(2024, 5, 1),
		IncomePlan: dec("1000"), ExpensePlan: dec("800"), Notes: "May",
	}); err != nil {
		t.Fatalf("CreateMonthlyBudget() error = %v", err)
	}
	e.add(t, e.salary, e.byn, "500", core.NewDate(2024, 5, 10))
	e.add(t, e.food, e.byn, "400", core.NewDate(2024, 5, 11))
	e.add(t, e.rent, e.byn, "500", core.NewDate(2024, 5, 12))
	e.add(t, e.rent, e.byn, "500", core.NewDate(2024, 6, 1))

	s, err := svc.MonthlySummary(ctx, testUser, core.NewDate(2024, 5, 1))
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}

	checks := []struct {
		name      string
		got, want string
	}{
		{"ActualIncome", s.ActualIncome.String(), "500"},
		{"ActualExpenses", s.ActualExpenses.String(), "900"},
		{"IncomeProgress", s.IncomeProgress.String(), "50"},
		{"ExpenseProgress", s.ExpenseProgress.String(), "112.5"},
		{"BalancePlan", s.BalancePlan.String(), "200"},
		{"BalanceActual", s.BalanceActual.String(), "-400"},
	}
	for _, c := range checks {
		if !dec(c.got).Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if s.Notes != "May" {
		t.Errorf("Notes = %q, want May", s.Notes)
	}

	if _, err := svc.MonthlySummary(ctx, testUser, core.NewDate(2024, 6, 1)); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("MonthlySummary(no plan) error = %v, want ErrNotFound", err)
	}
}

func TestBudgetService_MonthlySummaryForeignPlanCurrency(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewBudgetService(e.store)

	if _, err := svc.CreateMonthlyBudget(ctx, core.MonthlyBudget{
		UserID: testUser, CurrencyID: e.usd.ID, Month: core.NewDate(2024, 5, 1),
		IncomePlan: dec("0"), ExpensePlan: dec("100"),
	}); err != nil {
		t.Fatalf("CreateMonthlyBudget() error = %v", err)
	}
	e.add(t, e.food, e.byn, "160", core.NewDate(2024, 5, 2))

	s, err := svc.MonthlySummary(ctx, testUser, core.NewDate(2024, 5, 1))
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if !s.IncomeProgress.IsZero() {
		t.Errorf("IncomeProgress = %s, want 0 for a zero plan", s.IncomeProgress)
	}
	if !s.ExpensePlanBase.Equal(dec("320")) || !s.ExpenseProgress.Equal(dec("50")) {
		t.Errorf("expense plan base/progress = %s/%s, want 320/50", s.ExpensePlanBase, s.ExpenseProgress)
	}
}

func TestBudgetService_DuplicateMonthlyBudget(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewBudgetService(e.store)

	mb := core.MonthlyBudget{UserID: testUser, CurrencyID: e.byn.ID, Month: core.NewDate(2024, 5, 3), IncomePlan: dec("1")}
	created, err := svc.CreateMonthlyBudget(ctx, mb)
	if err != nil {
		t.Fatalf("CreateMonthlyBudget() error = %v", err)
	}
	mb.Month = core.NewDate(2024, 5, 28)
	if _, err := svc.CreateMonthlyBudget(ctx, mb); !errors.Is(err, core.ErrMonthlyBudgetExists) {
		t.Fatalf("CreateMonthlyBudget(dup) error = %v, want ErrMonthlyBudgetExists", err)
	}

	created.Notes = "edited"
	created.ExpensePlan = dec("700")
	updated, err := svc.UpdateMonthlyBudget(ctx, created)
	if err != nil {
		t.Fatalf("UpdateMonthlyBudget() error = %v", err)
	}
	if updated.Notes != "edited" || !updated.ExpensePlan.Equal(dec("700")) {
		t.Errorf("UpdateMonthlyBudget() = %+v", updated)
	}

	other, err := svc.CreateMonthlyBudget(ctx, core.MonthlyBudget{UserID: testUser, CurrencyID: e.byn.ID, Month: core.NewDate(2024, 6, 1)})
	if err != nil {
		t.Fatalf("CreateMonthlyBudget(june) error = %v", err)
	}
	other.Month = core.NewDate(2024, 5, 1)
	if _, err := svc.UpdateMonthlyBudget(ctx, other); !errors.Is(err, core.ErrMonthlyBudgetExists) {
		t.Errorf("UpdateMonthlyBudget(move onto taken month) error = %v, want ErrMonthlyBudgetExists", err)
	}
}
