package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/storage/memory"

	"github.com/shopspring/decimal"
)

const testUser int64 = 1

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock(y, m, d int) Clock {
	return func() time.Time { return time.Date(y, time.Month(m), d, 15, 4, 5, 0, time.UTC) }
}

type fakePublisher struct {
	mu      sync.Mutex
	synced  []int64
	deleted []int64
	err     error
}

func (f *fakePublisher) PublishTransactionSync(_ context.Context, _, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced = append(f.synced, id)
	return f.err
}

func (f *fakePublisher) PublishTransactionDelete(_ context.Context, _, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

var errBrokerDown = errors.New("broker down")

type env struct {
	store  *memory.Store
	pub    *fakePublisher
	tx     *TransactionService
	byn    core.Currency
	usd    core.Currency
	food   core.Category
	rent   core.Category
	salary core.Category
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	e := &env{store: store, pub: pub, tx: NewTransactionService(store, pub)}

	mustCurrency := func(code, rate string) core.Currency {
		c, err := store.CreateCurrency(ctx, core.Currency{Code: code, Name: code, Rate: dec(rate)})
		if err != nil {
			t.Fatalf("CreateCurrency(%s) error = %v", code, err)
		}
		return c
	}
	mustCategory := func(name string, income bool) core.Category {
		c, err := store.CreateCategory(ctx, core.Category{UserID: testUser, Name: name, IsIncome: income})
		if err != nil {
			t.Fatalf("CreateCategory(%s) error = %v", name, err)
		}
		return c
	}
	e.byn = mustCurrency("BYN", "1")
	e.usd = mustCurrency("USD", "3.2")
	e.food = mustCategory("Food", false)
	e.rent = mustCategory("Rent", false)
	e.salary = mustCategory("Salary", true)
	return e
}

func (e *env) add(t *testing.T, cat core.Category, cur core.Currency, amount string, d core.Date) core.Transaction {
	t.Helper()
	tx, err := e.tx.Create(context.Background(), core.Transaction{
		UserID: testUser, CategoryID: cat.ID, CurrencyID: cur.ID, Amount: dec(amount), Date: d,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return tx
}
