package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"budget/internal/core"
	"budget/internal/csvio"
)

// ImportResult reports how many CSV rows became transactions.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// TransferService exports and imports transactions as CSV.
type TransferService struct {
	store        Store
	catalog      *CatalogService
	transactions *TransactionService
}

func NewTransferService(store Store, catalog *CatalogService, transactions *TransactionService) *TransferService {
	return &TransferService{
		store:        store,
		catalog:      catalog,
		transactions: transactions,
	}
}

// Export writes all of the user's transactions, newest first.
func (s *TransferService) Export(ctx context.Context, userID int64, w io.Writer) error {
	txs, err := s.store.ListTransactions(ctx, userID, core.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	rows := make([]csvio.Row, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, csvio.Row{
			Date:        t.Date,
			Category:    names[t.CategoryID],
			Amount:      t.Amount,
			Description: t.Description,
		})
	}
	return csvio.Write(w, rows)
}

// Import reads Date,Category,Amount,Description rows. Each row lands in a
// get-or-created expense category in the base currency. Descriptions longer
// than core.MaxDescription are truncated. Rows that fail to parse or save are
// skipped.
func (s *TransferService) Import(ctx context.Context, userID int64, r io.Reader) (ImportResult, error) {
	base, err := s.catalog.BaseCurrency(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	rows, skipped, err := csvio.Read(r)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Skipped: skipped}
	for _, row := range rows {
		cat, err := s.catalog.EnsureCategory(ctx, userID, row.Category, false)
		if err != nil {
			slog.WarnContext(ctx, "Skipping CSV row", "category", row.Category, "error", err)
			result.Skipped++
			continue
		}
		_, err = s.transactions.Create(ctx, core.Transaction{
			UserID:      userID,
			CategoryID:  cat.ID,
			CurrencyID:  base.ID,
			Amount:      row.Amount,
			Date:        row.Date,
			Description: core.TruncateDescription(row.Description, core.MaxDescription),
		})
		if err != nil {
			slog.WarnContext(ctx, "Skipping CSV row", "date", row.Date.String(), "error", err)
			result.Skipped++
			continue
		}
		result.Imported++
	}

	slog.InfoContext(ctx, "CSV import complete",
		"user_id", userID,
		"imported", result.Imported,
		"skipped", result.Skipped)

	return result, nil
}
