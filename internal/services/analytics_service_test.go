package services

import (
	"context"
	"testing"

	"budget/internal/core"
)

func TestAnalyticsService_MonthReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAnalyticsService(e.store)

	e.add(t, e.food, e.byn, "30", core.NewDate(2024, 5, 1))
	e.add(t, e.rent, e.usd, "25", core.NewDate(2024, 5, 31))
	e.add(t, e.food, e.byn, "10", core.NewDate(2024, 5, 15))
	e.add(t, e.food, e.byn, "70", core.NewDate(2024, 4, 10))
	e.add(t, e.salary, e.byn, "1000", core.NewDate(2024, 5, 5))

	r, err := svc.MonthReport(ctx, testUser, core.NewDate(2024, 5, 1))
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}

	if len(r.ByCategory) != 2 {
		t.Fatalf("ByCategory = %+v, want 2 expense categories", r.ByCategory)
	}
	if r.ByCategory[0].Name != "Rent" || !r.ByCategory[0].Total.Equal(dec("80")) {
		t.Errorf("ByCategory[0] = %+v, want Rent 80", r.ByCategory[0])
	}
	if !r.Total.Equal(dec("120")) || !r.Average.Equal(dec("60")) || !r.Max.Equal(dec("80")) {
		t.Errorf("total/avg/max = %s/%s/%s, want 120/60/80", r.Total, r.Average, r.Max)
	}
	if r.ByCategory[1].Color != core.DefaultCategoryColor {
		t.Errorf("Color = %q, want default", r.ByCategory[1].Color)
	}

	if len(r.Trend) != 2 || !r.Trend[0].Total.Equal(dec("70")) || !r.Trend[1].Total.Equal(dec("120")) {
		t.Errorf("Trend = %+v, want April 70 then May 120", r.Trend)
	}
	if len(r.AvailableMonths) != 2 || !r.AvailableMonths[0].Equal(core.NewDate(2024, 5, 1).Time) {
		t.Errorf("AvailableMonths = %v", r.AvailableMonths)
	}
}

func TestAnalyticsService_MonthReportEmpty(t *testing.T) {
	e := newEnv(t)
	r, err := NewAnalyticsService(e.store).MonthReport(context.Background(), testUser, core.NewDate(2024, 5, 1))
	if err != nil {
		t.Fatalf("MonthReport() error = %v", err)
	}
	if r.Count != 0 || !r.Average.IsZero() || !r.Max.IsZero() {
		t.Errorf("empty report = %+v", r)
	}
}

func TestAnalyticsService_History(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAnalyticsService(e.store)
	budgets := NewBudgetService(e.store)

	e.add(t, e.salary, e.byn, "1000", core.NewDate(2024, 5, 5))
	e.add(t, e.food, e.usd, "10", core.NewDate(2024, 5, 6))
	e.add(t, e.food, e.byn, "20", core.NewDate(2023, 12, 6))
	if _, err := budgets.CreateMonthlyBudget(ctx, core.MonthlyBudget{UserID: testUser, CurrencyID: e.byn.ID, Month: core.NewDate(2024, 5, 1), IncomePlan: dec("900")}); err != nil {
		t.Fatalf("CreateMonthlyBudget() error = %v", err)
	}

	h, err := svc.History(ctx, testUser)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(h.Months) != 2 || len(h.Years) != 2 {
		t.Fatalf("History() = %d months %d years, want 2 and 2", len(h.Months), len(h.Years))
	}
	may := h.Months[0]
	if !may.IncomesBase.Equal(dec("1000")) || !may.ExpensesBase.Equal(dec("32")) {
		t.Errorf("May = %s/%s, want 1000/32", may.IncomesBase, may.ExpensesBase)
	}
	if may.Budget == nil || !may.Budget.IncomePlan.Equal(dec("900")) {
		t.Errorf("May budget = %+v", may.Budget)
	}
	if len(may.Expenses) != 1 || may.Expenses[0].CurrencyCode != "USD" || !may.Expenses[0].Total.Equal(dec("10")) {
		t.Errorf("May expenses = %+v", may.Expenses)
	}
	if h.Years[0].Year != 2024 || !h.Years[1].ExpensesBase.Equal(dec("20")) {
		t.Errorf("Years = %+v", h.Years)
	}
}
