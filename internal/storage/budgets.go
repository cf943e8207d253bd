package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

const budgetColumns = `id, user_id, category_id, currency_id, limit_cents, month`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b     core.Budget
		cents int64
		month string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.CurrencyID, &cents, &month); err != nil {
		return core.Budget{}, err
	}
	b.Limit = fromCents(cents)
	m, err := parseDate(month)
	if err != nil {
		return core.Budget{}, err
	}
	b.Month = m
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Month = core.MonthStart(b.Month.Time)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, currency_id, limit_cents, month) VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.CurrencyID, toCents(b.Limit), formatDate(b.Month))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.queryBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY month DESC, id`, userID)
}

// ListBudgetsForMonth returns budgets in declaration (id) order.
func (r *SQLiteRepository) ListBudgetsForMonth(ctx context.Context, userID int64, month core.Date) ([]core.Budget, error) {
	return r.queryBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND month = ? ORDER BY id`,
		userID, formatDate(core.MonthStart(month.Time)))
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return affected(res, fmt.Sprintf("delete budget %d", id))
}

const monthlyBudgetColumns = `id, user_id, currency_id, month, income_plan_cents, expense_plan_cents, notes`

func scanMonthlyBudget(row rowScanner) (core.MonthlyBudget, error) {
	var (
		b               core.MonthlyBudget
		month           string
		income, expense int64
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CurrencyID, &month, &income, &expense, &b.Notes); err != nil {
		return core.MonthlyBudget{}, err
	}
	m, err := parseDate(month)
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	b.Month = m
	b.IncomePlan = fromCents(income)
	b.ExpensePlan = fromCents(expense)
	return b, nil
}

// CreateMonthlyBudget rejects a second budget for the same (user, month)
// with ErrMonthlyBudgetExists.
func (r *SQLiteRepository) CreateMonthlyBudget(ctx context.Context, b core.MonthlyBudget) (core.MonthlyBudget, error) {
	b.Month = core.MonthStart(b.Month.Time)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_budgets (user_id, currency_id, month, income_plan_cents, expense_plan_cents, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CurrencyID, formatDate(b.Month), toCents(b.IncomePlan), toCents(b.ExpensePlan), b.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return core.MonthlyBudget{}, fmt.Errorf("create monthly budget %s: %w",
				core.MonthKey(b.Month.Time), core.ErrMonthlyBudgetExists)
		}
		return core.MonthlyBudget{}, fmt.Errorf("create monthly budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("monthly budget id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r *SQLiteRepository) UpdateMonthlyBudget(ctx context.Context, b core.MonthlyBudget) error {
	b.Month = core.MonthStart(b.Month.Time)
	res, err := r.db.ExecContext(ctx, `
		UPDATE monthly_budgets
		SET currency_id = ?, month = ?, income_plan_cents = ?, expense_plan_cents = ?, notes = ?
		WHERE id = ? AND user_id = ?`,
		b.CurrencyID, formatDate(b.Month), toCents(b.IncomePlan), toCents(b.ExpensePlan), b.Notes,
		b.ID, b.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update monthly budget %d: %w", b.ID, core.ErrMonthlyBudgetExists)
		}
		return fmt.Errorf("update monthly budget %d: %w", b.ID, err)
	}
	return affected(res, fmt.Sprintf("update monthly budget %d", b.ID))
}

func (r *SQLiteRepository) GetMonthlyBudget(ctx context.Context, userID, id int64) (core.MonthlyBudget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+monthlyBudgetColumns+` FROM monthly_budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanMonthlyBudget(row)
	if err != nil {
		return core.MonthlyBudget{}, notFound(err, fmt.Sprintf("get monthly budget %d", id))
	}
	return b, nil
}

func (r *SQLiteRepository) FindMonthlyBudget(ctx context.Context, userID int64, month core.Date) (core.MonthlyBudget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+monthlyBudgetColumns+` FROM monthly_budgets WHERE user_id = ? AND month = ?`,
		userID, formatDate(core.MonthStart(month.Time)))
	b, err := scanMonthlyBudget(row)
	if err != nil {
		return core.MonthlyBudget{}, notFound(err, "find monthly budget "+core.MonthKey(month.Time))
	}
	return b, nil
}

func (r *SQLiteRepository) ListMonthlyBudgets(ctx context.Context, userID int64) ([]core.MonthlyBudget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+monthlyBudgetColumns+` FROM monthly_budgets WHERE user_id = ? ORDER BY month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list monthly budgets: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyBudget
	for rows.Next() {
		b, err := scanMonthlyBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monthly budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
