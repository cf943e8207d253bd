package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

const categoryColumns = `id, user_id, name, is_income, color`

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.IsIncome, &c.Color); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, is_income, color) VALUES (?, ?, ?, ?)`,
		c.UserID, c.Name, c.IsIncome, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category %q: %w", c.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, fmt.Sprintf("get category %d", id))
	}
	return c, nil
}

// FindCategoryByName returns the lowest-id category matching name and kind.
func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, userID int64, name string, isIncome bool) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE user_id = ? AND name = ? AND is_income = ?
		 ORDER BY id LIMIT 1`, userID, name, isIncome)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, fmt.Sprintf("find category %q", name))
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory cascades to transactions, budgets and recurring templates
// through the schema's foreign keys.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return affected(res, fmt.Sprintf("delete category %d", id))
}
