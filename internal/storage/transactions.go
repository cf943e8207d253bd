package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

const transactionColumns = `t.id, t.user_id, t.category_id, t.currency_id, t.amount_cents,
	t.amount_base_cents, t.date, t.description, t.recurring_id, t.occurrence_date`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		amountCents, baseCents int64
		date                   string
		recurringID            sql.NullInt64
		occurrence             sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.CurrencyID, &amountCents,
		&baseCents, &date, &t.Description, &recurringID, &occurrence); err != nil {
		return core.Transaction{}, err
	}
	t.Amount = fromCents(amountCents)
	t.AmountBase = fromCents(baseCents)
	d, err := parseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = d
	t.RecurringID = recurringID.Int64
	if occurrence.Valid {
		od, err := parseDate(occurrence.String)
		if err != nil {
			return core.Transaction{}, err
		}
		t.OccurrenceDate = od
	}
	return t, nil
}

// CreateTransaction stores t as given; amount_base must already be computed.
// A second row for the same recurring occurrence yields ErrDuplicateOccurrence.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, category_id, currency_id, amount_cents,
			amount_base_cents, date, description, recurring_id, occurrence_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, t.CurrencyID, toCents(t.Amount), toCents(t.AmountBase),
		formatDate(t.Date), t.Description, nullableID(t.RecurringID), nullableDate(t.OccurrenceDate))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Transaction{}, fmt.Errorf("create transaction: %w", core.ErrDuplicateOccurrence)
		}
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"amount", t.Amount.String(),
		"amount_base", t.AmountBase.String(),
		"date", t.Date.String())

	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, currency_id = ?, amount_cents = ?,
			amount_base_cents = ?, date = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		t.CategoryID, t.CurrencyID, toCents(t.Amount), toCents(t.AmountBase),
		formatDate(t.Date), t.Description, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return affected(res, fmt.Sprintf("update transaction %d", t.ID))
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ? AND t.user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, fmt.Sprintf("get transaction %d", id))
	}
	return t, nil
}

// GetTransactionByID looks a transaction up without an owner check.
func (r *SQLiteRepository) GetTransactionByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, fmt.Sprintf("get transaction %d", id))
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return affected(res, fmt.Sprintf("delete transaction %d", id))
}

// ListTransactions returns the user's transactions matching f, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"t.user_id = ?"}
		args  = []any{userID}
	)
	switch f.Type {
	case core.OpIncome:
		where = append(where, "c.is_income = 1")
	case core.OpExpense:
		where = append(where, "c.is_income = 0")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "LOWER(t.description) LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	if f.CategoryID != 0 {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		where = append(where, "t.date >= ?")
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "t.date <= ?")
		args = append(args, formatDate(f.To))
	}

	query := `SELECT ` + transactionColumns + `
		FROM transactions t JOIN categories c ON c.id = t.category_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY t.date DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// SumAmountBase sums amount_base over [f.From, f.To).
func (r *SQLiteRepository) SumAmountBase(ctx context.Context, f core.SumFilter) (decimal.Decimal, error) {
	var (
		where = []string{"t.user_id = ?", "t.date >= ?", "t.date < ?"}
		args  = []any{f.UserID, f.From.Format(dateLayout), f.To.Format(dateLayout)}
	)
	if f.CategoryID != 0 {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	switch f.Type {
	case core.OpIncome:
		where = append(where, "c.is_income = 1")
	case core.OpExpense:
		where = append(where, "c.is_income = 0")
	}

	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount_base_cents), 0)
		FROM transactions t JOIN categories c ON c.id = t.category_id
		WHERE `+strings.Join(where, " AND "), args...).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum amount_base: %w", err)
	}
	return fromCents(cents), nil
}

// SumByCategory groups amount_base over [from, to) by category of one kind.
func (r *SQLiteRepository) SumByCategory(ctx context.Context, userID int64, from, to time.Time, isIncome bool) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.color, SUM(t.amount_base_cents) AS total
		FROM transactions t JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND c.is_income = ? AND t.date >= ? AND t.date < ?
		GROUP BY c.id, c.name, c.color
		ORDER BY total DESC, c.id`,
		userID, isIncome, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var (
			ct    core.CategoryTotal
			cents int64
		)
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &ct.Color, &cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Total = fromCents(cents)
		out = append(out, ct)
	}
	return out, rows.Err()
}

// MonthlyTotals returns amount_base per calendar month, oldest first.
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, userID int64, op core.OperationType) ([]core.MonthTotal, error) {
	where := "t.user_id = ?"
	switch op {
	case core.OpIncome:
		where += " AND c.is_income = 1"
	case core.OpExpense:
		where += " AND c.is_income = 0"
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(t.date, 1, 7) AS month, SUM(t.amount_base_cents)
		FROM transactions t JOIN categories c ON c.id = t.category_id
		WHERE `+where+`
		GROUP BY month
		ORDER BY month`, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	var out []core.MonthTotal
	for rows.Next() {
		var (
			key   string
			cents int64
		)
		if err := rows.Scan(&key, &cents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		month, err := parseDate(key + "-01")
		if err != nil {
			return nil, err
		}
		out = append(out, core.MonthTotal{Month: month, Total: fromCents(cents)})
	}
	return out, rows.Err()
}

// MonthlyCurrencyTotals groups sums by month, currency and kind, newest
// month first and currency code ascending.
func (r *SQLiteRepository) MonthlyCurrencyTotals(ctx context.Context, userID int64) ([]core.MonthCurrencyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(t.date, 1, 7) AS month, cur.code, cur.symbol, c.is_income,
			SUM(t.amount_cents), SUM(t.amount_base_cents)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		JOIN currencies cur ON cur.id = t.currency_id
		WHERE t.user_id = ?
		GROUP BY month, cur.code, cur.symbol, c.is_income
		ORDER BY month DESC, cur.code, c.is_income DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly currency totals: %w", err)
	}
	defer rows.Close()

	var out []core.MonthCurrencyTotal
	for rows.Next() {
		var (
			mt               core.MonthCurrencyTotal
			key              string
			cents, baseCents int64
		)
		if err := rows.Scan(&key, &mt.CurrencyCode, &mt.CurrencySymbol, &mt.IsIncome, &cents, &baseCents); err != nil {
			return nil, fmt.Errorf("scan monthly currency total: %w", err)
		}
		month, err := parseDate(key + "-01")
		if err != nil {
			return nil, err
		}
		mt.Month = month
		mt.Total = fromCents(cents)
		mt.TotalBase = fromCents(baseCents)
		out = append(out, mt)
	}
	return out, rows.Err()
}

// TransactionMonths lists the first day of every month holding at least one
// of the user's transactions, newest first.
func (r *SQLiteRepository) TransactionMonths(ctx context.Context, userID int64) ([]core.Date, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT substr(date, 1, 7) AS month
		FROM transactions WHERE user_id = ?
		ORDER BY month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("transaction months: %w", err)
	}
	defer rows.Close()

	var out []core.Date
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		month, err := parseDate(key + "-01")
		if err != nil {
			return nil, err
		}
		out = append(out, month)
	}
	return out, rows.Err()
}
