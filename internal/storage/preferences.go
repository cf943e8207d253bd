package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

// GetOrCreatePreferences returns the user's preferences, inserting the
// default row on first access.
func (r *SQLiteRepository) GetOrCreatePreferences(ctx context.Context, userID int64) (core.UserPreferences, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_preferences (user_id, budget_type) VALUES (?, ?)`,
		userID, string(core.BudgetTypeMonthly)); err != nil {
		return core.UserPreferences{}, fmt.Errorf("ensure preferences for user %d: %w", userID, err)
	}

	p := core.UserPreferences{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT budget_type FROM user_preferences WHERE user_id = ?`, userID).Scan(&p.BudgetType)
	if err != nil {
		return core.UserPreferences{}, notFound(err, fmt.Sprintf("get preferences for user %d", userID))
	}
	return p, nil
}

func (r *SQLiteRepository) SavePreferences(ctx context.Context, p core.UserPreferences) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, budget_type) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET budget_type = excluded.budget_type`,
		p.UserID, string(p.BudgetType))
	if err != nil {
		return fmt.Errorf("save preferences for user %d: %w", p.UserID, err)
	}
	return nil
}
