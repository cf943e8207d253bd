// Package memory is an in-process sheets.Mirror for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budget/internal/sheets"
)

type Sheet struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var _ sheets.Mirror = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

func (s *Sheet) Upsert(_ context.Context, r sheets.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rows {
		if existing.TransactionID == r.TransactionID {
			s.rows[i] = r
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Sheet) DeleteByTransactionID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.TransactionID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the mirrored rows in insertion order.
func (s *Sheet) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
