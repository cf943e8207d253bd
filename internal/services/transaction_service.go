package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/core"
)

// TransactionService is the only write path for transactions. It derives
// amount_base from the currency rate on every save and publishes a mirror
// event afterwards.
type TransactionService struct {
	store     Store
	publisher EventPublisher
}

// NewTransactionService accepts a nil publisher when AMQP is not configured.
func NewTransactionService(store Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// Create saves t with a freshly computed amount_base. Any AmountBase set by
// the caller is overwritten.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Amount = t.Amount.Round(core.AmountPlaces)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.applyRate(ctx, &t); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSync(ctx, saved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

// Update replaces the editable fields of an existing transaction and
// recomputes amount_base at the current rate.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.RecurringID = existing.RecurringID
	t.OccurrenceDate = existing.OccurrenceDate
	t.Amount = t.Amount.Round(core.AmountPlaces)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.applyRate(ctx, &t); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := s.publishSync(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", t.ID, "error", err)
	}

	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publishDelete(ctx, userID, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// applyRate checks the category belongs to the user and sets amount_base.
func (s *TransactionService) applyRate(ctx context.Context, t *core.Transaction) error {
	if _, err := s.store.GetCategory(ctx, t.UserID, t.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: category %d", core.ErrMissingCategory, t.CategoryID)
		}
		return fmt.Errorf("load category: %w", err)
	}
	cur, err := s.store.GetCurrency(ctx, t.CurrencyID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: currency %d", core.ErrMissingCurrency, t.CurrencyID)
		}
		return fmt.Errorf("load currency: %w", err)
	}
	t.AmountBase = core.RoundBase(cur.ToBase(t.Amount))
	return nil
}

func (s *TransactionService) publishSync(ctx context.Context, t core.Transaction) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, t.UserID, t.ID)
}

func (s *TransactionService) publishDelete(ctx context.Context, userID, id int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishTransactionDelete(ctx, userID, id)
}
