package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryBudgetLine is one row of the per-category budget report.
type CategoryBudgetLine struct {
	BudgetID  int64           `json:"budget_id"`
	Category  Category        `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Currency  Currency        `json:"currency"`
	LimitBase decimal.Decimal `json:"limit_base"`
	Spent     decimal.Decimal `json:"spent"`
	Left      decimal.Decimal `json:"left"`
	Exceeded  bool            `json:"exceeded"`
}

// NewCategoryBudgetLine compares spent (already in base currency) against
// the budget limit converted at the currency rate.
func NewCategoryBudgetLine(b Budget, cat Category, cur Currency, spent decimal.Decimal) CategoryBudgetLine {
	limitBase := cur.ToBase(b.Limit)
	return CategoryBudgetLine{
		BudgetID:  b.ID,
		Category:  cat,
		Limit:     b.Limit,
		Currency:  cur,
		LimitBase: limitBase,
		Spent:     spent,
		Left:      limitBase.Sub(spent),
		Exceeded:  spent.GreaterThan(limitBase),
	}
}

// MonthlySummary compares a MonthlyBudget plan with actual totals.
type MonthlySummary struct {
	BudgetID        int64           `json:"budget_id"`
	Month           Date            `json:"month"`
	Currency        Currency        `json:"currency"`
	IncomePlan      decimal.Decimal `json:"income_plan"`
	ExpensePlan     decimal.Decimal `json:"expense_plan"`
	IncomePlanBase  decimal.Decimal `json:"income_plan_base"`
	ExpensePlanBase decimal.Decimal `json:"expense_plan_base"`
	ActualIncome    decimal.Decimal `json:"actual_income"`
	ActualExpenses  decimal.Decimal `json:"actual_expenses"`
	IncomeProgress  decimal.Decimal `json:"income_progress"`
	ExpenseProgress decimal.Decimal `json:"expense_progress"`
	BalancePlan     decimal.Decimal `json:"balance_plan"`
	BalanceActual   decimal.Decimal `json:"balance_actual"`
	Notes           string          `json:"notes"`
}

func NewMonthlySummary(b MonthlyBudget, cur Currency, income, expenses decimal.Decimal) MonthlySummary {
	incomePlanBase := cur.ToBase(b.IncomePlan)
	expensePlanBase := cur.ToBase(b.ExpensePlan)
	return MonthlySummary{
		BudgetID:        b.ID,
		Month:           b.Month,
		Currency:        cur,
		IncomePlan:      b.IncomePlan,
		ExpensePlan:     b.ExpensePlan,
		IncomePlanBase:  incomePlanBase,
		ExpensePlanBase: expensePlanBase,
		ActualIncome:    income,
		ActualExpenses:  expenses,
		IncomeProgress:  Percent(income, incomePlanBase),
		ExpenseProgress: Percent(expenses, expensePlanBase),
		BalancePlan:     incomePlanBase.Sub(expensePlanBase),
		BalanceActual:   income.Sub(expenses),
		Notes:           b.Notes,
	}
}

// CategoryTotal is an amount_base sum for one category.
type CategoryTotal struct {
	CategoryID int64           `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
}

// MonthTotal is an amount_base sum for one calendar month.
type MonthTotal struct {
	Month Date            `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// AnalyticsReport describes expenses for one month plus the all-time trend.
type AnalyticsReport struct {
	Month           Date            `json:"month"`
	ByCategory      []CategoryTotal `json:"by_category"`
	Total           decimal.Decimal `json:"total"`
	Count           int             `json:"count"`
	Average         decimal.Decimal `json:"average"`
	Max             decimal.Decimal `json:"max"`
	Trend           []MonthTotal    `json:"trend"`
	AvailableMonths []Date          `json:"available_months"`
}

// NewAnalyticsReport sorts the category totals by total descending and
// derives total, average and max over them. Empty input yields zeros.
func NewAnalyticsReport(month Date, byCategory []CategoryTotal, trend []MonthTotal, months []Date) AnalyticsReport {
	sorted := make([]CategoryTotal, len(byCategory))
	copy(sorted, byCategory)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total.GreaterThan(sorted[j].Total)
	})

	total := decimal.Zero
	maxTotal := decimal.Zero
	for i, ct := range sorted {
		if ct.Color == "" {
			sorted[i].Color = DefaultCategoryColor
		}
		total = total.Add(ct.Total)
		if i == 0 || ct.Total.GreaterThan(maxTotal) {
			maxTotal = ct.Total
		}
	}

	trendSorted := make([]MonthTotal, len(trend))
	copy(trendSorted, trend)
	sort.SliceStable(trendSorted, func(i, j int) bool {
		return trendSorted[i].Month.Before(trendSorted[j].Month.Time)
	})

	monthsSorted := make([]Date, len(months))
	copy(monthsSorted, months)
	sort.SliceStable(monthsSorted, func(i, j int) bool {
		return monthsSorted[i].After(monthsSorted[j].Time)
	})

	return AnalyticsReport{
		Month:           month,
		ByCategory:      sorted,
		Total:           total,
		Count:           len(sorted),
		Average:         Average(total, len(sorted)),
		Max:             maxTotal,
		Trend:           trendSorted,
		AvailableMonths: monthsSorted,
	}
}

// MonthCurrencyTotal is a per-month, per-currency, per-kind sum.
type MonthCurrencyTotal struct {
	Month          Date            `json:"month"`
	CurrencyCode   string          `json:"currency_code"`
	CurrencySymbol string          `json:"currency_symbol"`
	IsIncome       bool            `json:"is_income"`
	Total          decimal.Decimal `json:"total"`
	TotalBase      decimal.Decimal `json:"total_base"`
}

// MonthHistory groups one month's totals by kind and currency.
type MonthHistory struct {
	Month        Date                 `json:"month"`
	Incomes      []MonthCurrencyTotal `json:"incomes"`
	Expenses     []MonthCurrencyTotal `json:"expenses"`
	IncomesBase  decimal.Decimal      `json:"incomes_base"`
	ExpensesBase decimal.Decimal      `json:"expenses_base"`
	Budget       *MonthlyBudget       `json:"budget,omitempty"`
}

type YearTotal struct {
	Year         int             `json:"year"`
	IncomesBase  decimal.Decimal `json:"incomes_base"`
	ExpensesBase decimal.Decimal `json:"expenses_base"`
}

type History struct {
	Months []MonthHistory `json:"months"`
	Years  []YearTotal    `json:"years"`
}

// BuildHistory groups per-currency totals by month and year, newest first,
// attaching the MonthlyBudget of each month when one exists.
func BuildHistory(rows []MonthCurrencyTotal, budgets []MonthlyBudget) History {
	byMonth := make(map[string]*MonthHistory)
	byYear := make(map[int]*YearTotal)

	plans := make(map[string]MonthlyBudget, len(budgets))
	for _, b := range budgets {
		key := MonthKey(b.Month.Time)
		if _, ok := plans[key]; !ok {
			plans[key] = b
		}
	}

	for _, row := range rows {
		key := MonthKey(row.Month.Time)
		mh, ok := byMonth[key]
		if !ok {
			mh = &MonthHistory{Month: MonthStart(row.Month.Time)}
			if plan, ok := plans[key]; ok {
				mh.Budget = &plan
			}
			byMonth[key] = mh
		}
		year := row.Month.Year()
		yt, ok := byYear[year]
		if !ok {
			yt = &YearTotal{Year: year}
			byYear[year] = yt
		}

		if row.IsIncome {
			mh.Incomes = append(mh.Incomes, row)
			mh.IncomesBase = mh.IncomesBase.Add(row.TotalBase)
			yt.IncomesBase = yt.IncomesBase.Add(row.TotalBase)
		} else {
			mh.Expenses = append(mh.Expenses, row)
			mh.ExpensesBase = mh.ExpensesBase.Add(row.TotalBase)
			yt.ExpensesBase = yt.ExpensesBase.Add(row.TotalBase)
		}
	}

	h := History{
		Months: make([]MonthHistory, 0, len(byMonth)),
		Years:  make([]YearTotal, 0, len(byYear)),
	}
	for _, mh := range byMonth {
		h.Months = append(h.Months, *mh)
	}
	for _, yt := range byYear {
		h.Years = append(h.Years, *yt)
	}
	sort.Slice(h.Months, func(i, j int) bool {
		return h.Months[i].Month.After(h.Months[j].Month.Time)
	})
	sort.Slice(h.Years, func(i, j int) bool {
		return h.Years[i].Year > h.Years[j].Year
	})
	return h
}
