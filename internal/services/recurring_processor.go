package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/core"
)

// ProcessResult counts what one scheduler run did.
type ProcessResult struct {
	Due     int `json:"due"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RecurringProcessor materializes due recurring templates into transactions.
// It runs only when triggered explicitly.
type RecurringProcessor struct {
	store        Store
	transactions *TransactionService
	clock        Clock
}

func NewRecurringProcessor(store Store, transactions *TransactionService, clock Clock) *RecurringProcessor {
	if clock == nil {
		clock = SystemClock
	}
	return &RecurringProcessor{
		store:        store,
		transactions: transactions,
		clock:        clock,
	}
}

// ProcessDue fires every active template of the user whose next_date is on
// or before today. Each template fires at most once per call. A failing
// template is logged and skipped; the others still run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, userID int64) (ProcessResult, error) {
	if p.store == nil || p.transactions == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(p.clock())
	due, err := p.store.ListDueRecurring(ctx, userID, today)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to get due recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"user_id", userID,
		"due", len(due),
		"processing_date", today.String())

	result := ProcessResult{Due: len(due)}
	for _, item := range due {
		switch created, err := p.fire(ctx, item); {
		case err != nil:
			result.Failed++
			slog.ErrorContext(ctx, "Failed to process recurring transaction",
				"recurring_id", item.ID,
				"description", item.Description,
				"error", err)
		case created:
			result.Created++
		default:
			result.Skipped++
		}
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"user_id", userID,
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

// fire materializes one occurrence and advances next_date. It reports
// whether a new transaction was written.
func (p *RecurringProcessor) fire(ctx context.Context, item core.RecurringTransaction) (bool, error) {
	advancer, err := GetScheduleAdvancer(item.Frequency)
	if err != nil {
		return false, err
	}

	occurrence := item.NextDate
	_, err = p.transactions.Create(ctx, core.Transaction{
		UserID:         item.UserID,
		CategoryID:     item.CategoryID,
		CurrencyID:     item.CurrencyID,
		Amount:         item.Amount,
		Date:           occurrence,
		Description:    core.TruncateDescription(core.RecurringDescriptionPrefix+item.Description, core.MaxDescription),
		RecurringID:    item.ID,
		OccurrenceDate: occurrence,
	})
	created := err == nil
	if err != nil && !errors.Is(err, core.ErrDuplicateOccurrence) {
		return false, fmt.Errorf("create transaction: %w", err)
	}
	if !created {
		// An earlier or concurrent run already wrote this occurrence;
		// still try to advance so an interrupted run recovers.
		slog.InfoContext(ctx, "Recurring occurrence already materialized",
			"recurring_id", item.ID,
			"occurrence", occurrence.String())
	}

	next := advancer.Next(occurrence)
	advanced, err := p.store.AdvanceRecurring(ctx, item.ID, occurrence, next)
	if err != nil {
		return created, fmt.Errorf("advance next date: %w", err)
	}
	if !advanced {
		slog.InfoContext(ctx, "Recurring transaction advanced by another run",
			"recurring_id", item.ID)
	}

	if created {
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", item.ID,
			"amount", item.Amount.String(),
			"frequency", item.Frequency,
			"next_date", next.String())
	}
	return created, nil
}
