// Package sheets defines the spreadsheet mirror of the transaction ledger.
package sheets

import (
	"context"
	"strconv"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Header is the first row of the mirror tab. The transaction ID column
// identifies a row for updates and deletes.
var Header = []any{"ID", "Date", "Category", "Amount", "Currency", "AmountBase", "Description"}

// Row is one mirrored transaction.
type Row struct {
	TransactionID int64
	Date          core.Date
	Category      string
	Amount        decimal.Decimal
	Currency      string
	AmountBase    decimal.Decimal
	Description   string
}

// Values renders the row in Header order. Amounts are fixed to two places
// so the sheet shows them as entered.
func (r Row) Values() []any {
	return []any{
		strconv.FormatInt(r.TransactionID, 10),
		r.Date.String(),
		r.Category,
		r.Amount.StringFixed(core.AmountPlaces),
		r.Currency,
		r.AmountBase.StringFixed(core.AmountPlaces),
		r.Description,
	}
}

// Ports for outbound adapters.
type (
	// RowWriter inserts the row, or overwrites the row already holding the
	// same transaction ID, so redelivered messages do not duplicate rows.
	RowWriter interface {
		Upsert(ctx context.Context, r Row) (rowRef string, err error)
	}

	// RowDeleter removes the row of a transaction. A missing row is not an
	// error.
	RowDeleter interface {
		DeleteByTransactionID(ctx context.Context, id int64) error
	}

	Mirror interface {
		RowWriter
		RowDeleter
	}
)
