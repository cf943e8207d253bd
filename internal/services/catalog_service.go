package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// CatalogService manages the shared currency table and per-user categories.
type CatalogService struct {
	store Store
}

func NewCatalogService(store Store) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) CreateCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Rate = c.Rate.Round(core.RatePlaces)
	if err := c.Validate(); err != nil {
		return core.Currency{}, err
	}
	return s.store.CreateCurrency(ctx, c)
}

func (s *CatalogService) ListCurrencies(ctx context.Context) ([]core.Currency, error) {
	return s.store.ListCurrencies(ctx)
}

// UpdateRate changes a currency's rate. Stored amount_base values are not
// recomputed.
func (s *CatalogService) UpdateRate(ctx context.Context, code string, rate decimal.Decimal) (core.Currency, error) {
	c, err := s.store.GetCurrencyByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return core.Currency{}, err
	}
	c.Rate = rate.Round(core.RatePlaces)
	if err := c.Validate(); err != nil {
		return core.Currency{}, err
	}
	if err := s.store.UpdateCurrency(ctx, c); err != nil {
		return core.Currency{}, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCurrency(ctx context.Context, id int64) error {
	return s.store.DeleteCurrency(ctx, id)
}

// BaseCurrency returns the lowest-id currency whose rate is 1.
func (s *CatalogService) BaseCurrency(ctx context.Context) (core.Currency, error) {
	all, err := s.store.ListCurrencies(ctx)
	if err != nil {
		return core.Currency{}, err
	}
	for _, c := range all {
		if c.IsBase() {
			return c, nil
		}
	}
	return core.Currency{}, fmt.Errorf("base currency: %w", core.ErrNotFound)
}

// SeedCurrencies inserts missing currencies and updates name, symbol and
// rate of existing ones, matched by code.
func (s *CatalogService) SeedCurrencies(ctx context.Context, seed []core.Currency) (created, updated int, err error) {
	for _, c := range seed {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		c.Rate = c.Rate.Round(core.RatePlaces)
		if err := c.Validate(); err != nil {
			return created, updated, fmt.Errorf("currency %s: %w", c.Code, err)
		}

		existing, err := s.store.GetCurrencyByCode(ctx, c.Code)
		switch {
		case errors.Is(err, core.ErrNotFound):
			if _, err := s.store.CreateCurrency(ctx, c); err != nil {
				return created, updated, err
			}
			created++
		case err != nil:
			return created, updated, err
		default:
			c.ID = existing.ID
			if err := s.store.UpdateCurrency(ctx, c); err != nil {
				return created, updated, err
			}
			updated++
		}
	}

	slog.InfoContext(ctx, "Currencies seeded", "created", created, "updated", updated)
	return created, updated, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, c)
}

// EnsureCategory returns the user's category with that name and kind,
// creating it with the default color when missing.
func (s *CatalogService) EnsureCategory(ctx context.Context, userID int64, name string, isIncome bool) (core.Category, error) {
	name = strings.TrimSpace(name)
	c, err := s.store.FindCategoryByName(ctx, userID, name, isIncome)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, err
	}
	return s.CreateCategory(ctx, core.Category{UserID: userID, Name: name, IsIncome: isIncome})
}

func (s *CatalogService) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

// DeleteCategory also removes the category's transactions, budgets and
// recurring templates.
func (s *CatalogService) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.store.DeleteCategory(ctx, userID, id)
}
