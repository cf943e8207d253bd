package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

const recurringColumns = `id, user_id, category_id, currency_id, amount_cents, description,
	frequency, start_date, next_date, is_active`

func scanRecurring(row rowScanner) (core.RecurringTransaction, error) {
	var (
		rt          core.RecurringTransaction
		cents       int64
		start, next string
	)
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.CategoryID, &rt.CurrencyID, &cents, &rt.Description,
		&rt.Frequency, &start, &next, &rt.IsActive); err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.Amount = fromCents(cents)
	var err error
	if rt.StartDate, err = parseDate(start); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.NextDate, err = parseDate(next); err != nil {
		return core.RecurringTransaction{}, err
	}
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (user_id, category_id, currency_id, amount_cents,
			description, frequency, start_date, next_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.UserID, rt.CategoryID, rt.CurrencyID, toCents(rt.Amount), rt.Description,
		string(rt.Frequency), formatDate(rt.StartDate), formatDate(rt.NextDate), rt.IsActive)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring transaction id: %w", err)
	}
	rt.ID = id
	return rt, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, userID, id int64) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	rt, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTransaction{}, notFound(err, fmt.Sprintf("get recurring transaction %d", id))
	}
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE user_id = ? ORDER BY next_date, id`, userID)
}

// ListDueRecurring returns the user's active templates with next_date <= today.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, userID int64, today core.Date) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx, `
		SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE user_id = ? AND is_active = 1 AND next_date <= ?
		ORDER BY next_date, id`, userID, formatDate(today))
}

func (r *SQLiteRepository) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// AdvanceRecurring moves next_date from -> to only if it still equals from.
// It reports false when another run already advanced the template.
func (r *SQLiteRepository) AdvanceRecurring(ctx context.Context, id int64, from, to core.Date) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET next_date = ? WHERE id = ? AND next_date = ?`,
		formatDate(to), id, formatDate(from))
	if err != nil {
		return false, fmt.Errorf("advance recurring transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance recurring transaction %d: %w", id, err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) SetRecurringActive(ctx context.Context, userID, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET is_active = ? WHERE id = ? AND user_id = ?`, active, id, userID)
	if err != nil {
		return fmt.Errorf("set recurring transaction %d active: %w", id, err)
	}
	return affected(res, fmt.Sprintf("set recurring transaction %d active", id))
}

// DeleteRecurring removes the template only; materialized transactions keep
// their rows with the provenance link cleared.
func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction %d: %w", id, err)
	}
	return affected(res, fmt.Sprintf("delete recurring transaction %d", id))
}
