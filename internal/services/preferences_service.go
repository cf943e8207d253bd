package services

import (
	"context"

	"budget/internal/core"
)

type PreferencesService struct {
	store Store
}

func NewPreferencesService(store Store) *PreferencesService {
	return &PreferencesService{store: store}
}

// Ensure returns the user's preferences, creating the default (monthly) on
// first call. Repeated calls never create a second row.
func (s *PreferencesService) Ensure(ctx context.Context, userID int64) (core.UserPreferences, error) {
	if userID == 0 {
		return core.UserPreferences{}, core.ErrMissingUser
	}
	return s.store.GetOrCreatePreferences(ctx, userID)
}

func (s *PreferencesService) SetBudgetType(ctx context.Context, userID int64, bt core.BudgetType) (core.UserPreferences, error) {
	if err := bt.Validate(); err != nil {
		return core.UserPreferences{}, err
	}
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return core.UserPreferences{}, err
	}
	p.BudgetType = bt
	if err := s.store.SavePreferences(ctx, p); err != nil {
		return core.UserPreferences{}, err
	}
	return p, nil
}
