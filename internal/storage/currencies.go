package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

const currencyColumns = `id, code, name, symbol, rate`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCurrency(row rowScanner) (core.Currency, error) {
	var c core.Currency
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.Rate); err != nil {
		return core.Currency{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO currencies (code, name, symbol, rate) VALUES (?, ?, ?, ?)`,
		c.Code, c.Name, c.Symbol, c.Rate.String())
	if err != nil {
		if isUniqueViolation(err) {
			return core.Currency{}, fmt.Errorf("create currency %s: %w", c.Code, core.ErrCurrencyExists)
		}
		return core.Currency{}, fmt.Errorf("create currency %s: %w", c.Code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Currency{}, fmt.Errorf("currency id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) GetCurrency(ctx context.Context, id int64) (core.Currency, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE id = ?`, id)
	c, err := scanCurrency(row)
	if err != nil {
		return core.Currency{}, notFound(err, fmt.Sprintf("get currency %d", id))
	}
	return c, nil
}

func (r *SQLiteRepository) GetCurrencyByCode(ctx context.Context, code string) (core.Currency, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE code = ?`, code)
	c, err := scanCurrency(row)
	if err != nil {
		return core.Currency{}, notFound(err, "get currency "+code)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCurrencies(ctx context.Context) ([]core.Currency, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+currencyColumns+` FROM currencies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var out []core.Currency
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCurrency(ctx context.Context, c core.Currency) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE currencies SET name = ?, symbol = ?, rate = ? WHERE id = ?`,
		c.Name, c.Symbol, c.Rate.String(), c.ID)
	if err != nil {
		return fmt.Errorf("update currency %d: %w", c.ID, err)
	}
	return affected(res, fmt.Sprintf("update currency %d", c.ID))
}

// DeleteCurrency refuses to delete a currency still referenced by any row.
func (r *SQLiteRepository) DeleteCurrency(ctx context.Context, id int64) error {
	var refs int64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM transactions WHERE currency_id = ?) +
			(SELECT COUNT(*) FROM budgets WHERE currency_id = ?) +
			(SELECT COUNT(*) FROM monthly_budgets WHERE currency_id = ?) +
			(SELECT COUNT(*) FROM recurring_transactions WHERE currency_id = ?)`,
		id, id, id, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count currency references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("delete currency %d: %w", id, core.ErrCurrencyInUse)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM currencies WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete currency %d: %w", id, core.ErrCurrencyInUse)
		}
		return fmt.Errorf("delete currency %d: %w", id, err)
	}
	return affected(res, fmt.Sprintf("delete currency %d", id))
}
