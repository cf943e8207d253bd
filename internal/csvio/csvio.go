// Package csvio maps transactions to and from the spreadsheet-friendly CSV
// layout: Date,Category,Amount,Description.
package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// BOM makes spreadsheet applications detect UTF-8.
const BOM = "\uFEFF"

var Header = []string{"Date", "Category", "Amount", "Description"}

type Row struct {
	Date        core.Date
	Category    string
	Amount      decimal.Decimal
	Description string
}

// Write emits the BOM, the header and one record per row in the given order.
func Write(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Date.String(), r.Category, r.Amount.StringFixed(core.AmountPlaces), r.Description}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses every record after the first, which is always taken as the
// header. Malformed records (wrong
// column count, bad date, empty category, non-positive or non-numeric
// amount) are skipped and counted.
func Read(r io.Reader) (rows []Row, skipped int, err error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(BOM)); err == nil && string(prefix) == BOM {
		br.Discard(len(BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		// The first record is the header whether or not it parses.
		first := header
		header = false
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return rows, skipped, fmt.Errorf("read csv: %w", err)
			}
			if !first {
				skipped++
			}
			continue
		}
		if first {
			continue
		}

		row, ok := parseRecord(rec)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseRecord(rec []string) (Row, bool) {
	if len(rec) != len(Header) {
		return Row{}, false
	}
	date, err := core.ParseDate(rec[0])
	if err != nil {
		return Row{}, false
	}
	category := strings.TrimSpace(rec[1])
	if category == "" {
		return Row{}, false
	}
	amount, err := core.ParseAmount(rec[2])
	if err != nil {
		return Row{}, false
	}
	return Row{
		Date:        date,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(rec[3]),
	}, true
}
