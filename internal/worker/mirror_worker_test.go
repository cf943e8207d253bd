package worker

import (
	"context"
	"errors"
	"testing"

	"budget/internal/amqp"
	"budget/internal/core"
	sheetsmem "budget/internal/sheets/memory"
	"budget/internal/storage/memory"

	"github.com/shopspring/decimal"
)

func seed(t *testing.T) (*memory.Store, core.Transaction) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	cur, err := store.CreateCurrency(ctx, core.Currency{Code: "USD", Name: "US dollar", Rate: decimal.RequireFromString("3.2")})
	if err != nil {
		t.Fatalf("CreateCurrency() error = %v", err)
	}
	cat, err := store.CreateCategory(ctx, core.Category{UserID: 1, Name: "Food"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	tx, err := store.CreateTransaction(ctx, core.Transaction{
		UserID: 1, CategoryID: cat.ID, CurrencyID: cur.ID,
		Amount: decimal.RequireFromString("10"), AmountBase: decimal.RequireFromString("32"),
		Date: core.NewDate(2024, 5, 1), Description: "Lunch",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return store, tx
}

func TestMirrorWorker_Sync(t *testing.T) {
	store, tx := seed(t)
	sheet := sheetsmem.New()
	w := NewMirrorWorker(store, sheet)
	ctx := context.Background()

	msg := amqp.NewTransactionSyncMessage(tx.UserID, tx.ID)
	for i := 0; i < 2; i++ {
		if err := w.HandleSyncMessage(ctx, msg); err != nil {
			t.Fatalf("HandleSyncMessage() error = %v", err)
		}
	}

	rows := sheet.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 after a redelivered message", len(rows))
	}
	r := rows[0]
	if r.Category != "Food" || r.Currency != "USD" || !r.AmountBase.Equal(decimal.NewFromInt(32)) || r.Description != "Lunch" {
		t.Errorf("row = %+v", r)
	}
}

func TestMirrorWorker_SyncMissingTransaction(t *testing.T) {
	store, _ := seed(t)
	sheet := sheetsmem.New()
	w := NewMirrorWorker(store, sheet)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage(1, 999)); err != nil {
		t.Errorf("HandleSyncMessage(missing) error = %v, want nil", err)
	}
	if len(sheet.Rows()) != 0 {
		t.Error("missing transaction should not produce a row")
	}
}

func TestMirrorWorker_Delete(t *testing.T) {
	store, tx := seed(t)
	sheet := sheetsmem.New()
	w := NewMirrorWorker(store, sheet)
	ctx := context.Background()

	h := w.Handlers()
	if err := h.Sync(ctx, amqp.NewTransactionSyncMessage(tx.UserID, tx.ID)); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := h.Delete(ctx, amqp.NewTransactionDeleteMessage(tx.UserID, tx.ID)); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(sheet.Rows()) != 0 {
		t.Errorf("rows = %+v, want none", sheet.Rows())
	}
}

type failingMirror struct{ *sheetsmem.Sheet }

var errQuota = errors.New("quota exceeded")

func (failingMirror) DeleteByTransactionID(context.Context, int64) error { return errQuota }

func TestMirrorWorker_DeleteFailureIsReturned(t *testing.T) {
	store, tx := seed(t)
	w := NewMirrorWorker(store, failingMirror{sheetsmem.New()})

	err := w.HandleDeleteMessage(context.Background(), amqp.NewTransactionDeleteMessage(tx.UserID, tx.ID))
	if !errors.Is(err, errQuota) {
		t.Errorf("HandleDeleteMessage() error = %v, want errQuota", err)
	}
}
