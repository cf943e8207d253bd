package services

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
)

// RecurringService manages recurring templates owned by a user.
type RecurringService struct {
	store Store
}

func NewRecurringService(store Store) *RecurringService {
	return &RecurringService{store: store}
}

// Create initializes next_date to start_date.
func (s *RecurringService) Create(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	r.Amount = r.Amount.Round(core.AmountPlaces)
	r.NextDate = r.StartDate
	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.store.GetCategory(ctx, r.UserID, r.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.RecurringTransaction{}, fmt.Errorf("%w: category %d", core.ErrMissingCategory, r.CategoryID)
		}
		return core.RecurringTransaction{}, err
	}
	if _, err := s.store.GetCurrency(ctx, r.CurrencyID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.RecurringTransaction{}, fmt.Errorf("%w: currency %d", core.ErrMissingCurrency, r.CurrencyID)
		}
		return core.RecurringTransaction{}, err
	}
	return s.store.CreateRecurring(ctx, r)
}

func (s *RecurringService) List(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return s.store.ListRecurring(ctx, userID)
}

// SetActive pauses or resumes a template.
func (s *RecurringService) SetActive(ctx context.Context, userID, id int64, active bool) error {
	return s.store.SetRecurringActive(ctx, userID, id, active)
}

// Delete removes the template only. Transactions it already produced stay.
func (s *RecurringService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteRecurring(ctx, userID, id)
}
