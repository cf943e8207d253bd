package memory

import (
	"context"
	"testing"

	"budget/internal/sheets"

	"github.com/shopspring/decimal"
)

func TestSheetUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref, err := s.Upsert(ctx, sheets.Row{TransactionID: 1, Amount: decimal.NewFromInt(5)})
	if err != nil || ref != "mem:1" {
		t.Fatalf("Upsert() = %q, %v", ref, err)
	}
	if _, err := s.Upsert(ctx, sheets.Row{TransactionID: 2}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	ref, err = s.Upsert(ctx, sheets.Row{TransactionID: 1, Amount: decimal.NewFromInt(9)})
	if err != nil || ref != "mem:1" {
		t.Fatalf("Upsert(existing) = %q, %v, want mem:1", ref, err)
	}
	rows := s.Rows()
	if len(rows) != 2 || !rows[0].Amount.Equal(decimal.NewFromInt(9)) {
		t.Errorf("Rows() = %+v, want 2 rows with the first overwritten", rows)
	}

	if err := s.DeleteByTransactionID(ctx, 1); err != nil {
		t.Fatalf("DeleteByTransactionID() error = %v", err)
	}
	if err := s.DeleteByTransactionID(ctx, 1); err != nil {
		t.Errorf("DeleteByTransactionID(missing) error = %v, want nil", err)
	}
	if rows := s.Rows(); len(rows) != 1 || rows[0].TransactionID != 2 {
		t.Errorf("Rows() after delete = %+v", rows)
	}
}

func TestRowValues(t *testing.T) {
	r := sheets.Row{TransactionID: 42, Amount: decimal.RequireFromString("12.5"), Currency: "USD", AmountBase: decimal.RequireFromString("40"), Category: "Food"}
	got := r.Values()
	if len(got) != len(sheets.Header) {
		t.Fatalf("len(Values()) = %d, want %d", len(got), len(sheets.Header))
	}
	if got[0] != "42" || got[3] != "12.50" || got[5] != "40.00" {
		t.Errorf("Values() = %v", got)
	}
}
