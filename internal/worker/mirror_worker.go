// Package worker applies transaction events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/sheets"
)

// Ledger is the read side the worker needs from the store.
type Ledger interface {
	GetTransactionByID(ctx context.Context, id int64) (core.Transaction, error)
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
	GetCurrency(ctx context.Context, id int64) (core.Currency, error)
}

type MirrorWorker struct {
	ledger Ledger
	mirror sheets.Mirror
}

func NewMirrorWorker(ledger Ledger, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{ledger: ledger, mirror: mirror}
}

// Handlers wires the worker into an AMQP consumer.
func (w *MirrorWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		Sync:   w.HandleSyncMessage,
		Delete: w.HandleDeleteMessage,
	}
}

// HandleSyncMessage loads the transaction and writes its row. A transaction
// deleted before the message arrived is acknowledged without writing.
func (w *MirrorWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"user_id", msg.UserID,
		"message_id", msg.MessageID)

	tx, err := w.ledger.GetTransactionByID(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction vanished before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	row, err := w.row(ctx, tx)
	if err != nil {
		return err
	}

	ref, err := w.mirror.Upsert(ctx, row)
	if err != nil {
		return fmt.Errorf("upsert sheet row: %w", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"amount", tx.Amount.String())
	return nil
}

func (w *MirrorWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message",
		"id", msg.ID,
		"message_id", msg.MessageID)

	if err := w.mirror.DeleteByTransactionID(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete sheet row: %w", err)
	}
	return nil
}

func (w *MirrorWorker) row(ctx context.Context, tx core.Transaction) (sheets.Row, error) {
	cat, err := w.ledger.GetCategory(ctx, tx.UserID, tx.CategoryID)
	if err != nil {
		return sheets.Row{}, fmt.Errorf("get category: %w", err)
	}
	cur, err := w.ledger.GetCurrency(ctx, tx.CurrencyID)
	if err != nil {
		return sheets.Row{}, fmt.Errorf("get currency: %w", err)
	}
	return sheets.Row{
		TransactionID: tx.ID,
		Date:          tx.Date,
		Category:      cat.Name,
		Amount:        tx.Amount,
		Currency:      cur.Code,
		AmountBase:    tx.AmountBase,
		Description:   tx.Description,
	}, nil
}
