package services

import (
	"context"
	"time"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Clock returns the current time. Services derive "today" from it.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }

// Ports implemented by the storage backends.
type (
	CurrencyStore interface {
		CreateCurrency(ctx context.Context, c core.Currency) (core.Currency, error)
		GetCurrency(ctx context.Context, id int64) (core.Currency, error)
		GetCurrencyByCode(ctx context.Context, code string) (core.Currency, error)
		ListCurrencies(ctx context.Context) ([]core.Currency, error)
		UpdateCurrency(ctx context.Context, c core.Currency) error
		DeleteCurrency(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
		FindCategoryByName(ctx context.Context, userID int64, name string, isIncome bool) (core.Category, error)
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		DeleteCategory(ctx context.Context, userID, id int64) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		GetTransactionByID(ctx context.Context, id int64) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id int64) error
		ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error)
		SumAmountBase(ctx context.Context, f core.SumFilter) (decimal.Decimal, error)
		SumByCategory(ctx context.Context, userID int64, from, to time.Time, isIncome bool) ([]core.CategoryTotal, error)
		MonthlyTotals(ctx context.Context, userID int64, op core.OperationType) ([]core.MonthTotal, error)
		MonthlyCurrencyTotals(ctx context.Context, userID int64) ([]core.MonthCurrencyTotal, error)
		TransactionMonths(ctx context.Context, userID int64) ([]core.Date, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
		ListBudgetsForMonth(ctx context.Context, userID int64, month core.Date) ([]core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id int64) error
	}

	MonthlyBudgetStore interface {
		CreateMonthlyBudget(ctx context.Context, b core.MonthlyBudget) (core.MonthlyBudget, error)
		UpdateMonthlyBudget(ctx context.Context, b core.MonthlyBudget) error
		GetMonthlyBudget(ctx context.Context, userID, id int64) (core.MonthlyBudget, error)
		FindMonthlyBudget(ctx context.Context, userID int64, month core.Date) (core.MonthlyBudget, error)
		ListMonthlyBudgets(ctx context.Context, userID int64) ([]core.MonthlyBudget, error)
	}

	RecurringStore interface {
		CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error)
		GetRecurring(ctx context.Context, userID, id int64) (core.RecurringTransaction, error)
		ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error)
		ListDueRecurring(ctx context.Context, userID int64, today core.Date) ([]core.RecurringTransaction, error)
		AdvanceRecurring(ctx context.Context, id int64, from, to core.Date) (bool, error)
		SetRecurringActive(ctx context.Context, userID, id int64, active bool) error
		DeleteRecurring(ctx context.Context, userID, id int64) error
	}

	PreferencesStore interface {
		GetOrCreatePreferences(ctx context.Context, userID int64) (core.UserPreferences, error)
		SavePreferences(ctx context.Context, p core.UserPreferences) error
	}

	// Store is everything a backend provides.
	Store interface {
		CurrencyStore
		CategoryStore
		TransactionStore
		BudgetStore
		MonthlyBudgetStore
		RecurringStore
		PreferencesStore
		// Ping reports whether the backend can serve requests.
		Ping(ctx context.Context) error
		Close() error
	}

	// EventPublisher announces transaction changes to the mirror worker.
	EventPublisher interface {
		PublishTransactionSync(ctx context.Context, userID, id int64) error
		PublishTransactionDelete(ctx context.Context, userID, id int64) error
	}
)
