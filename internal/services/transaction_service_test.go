package services

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
)

func TestTransactionService_CreateComputesAmountBase(t *testing.T) {
	tests := []struct {
		name     string
		currency func(*env) core.Currency
		amount   string
		want     string
	}{
		{"base currency", func(e *env) core.Currency { return e.byn }, "100", "100"},
		{"foreign currency", func(e *env) core.Currency { return e.usd }, "10", "32"},
		{"rounded to cents", func(e *env) core.Currency { return e.usd }, "15.63", "50.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			cur := tt.currency(e)
			tx, err := e.tx.Create(context.Background(), core.Transaction{
				UserID: testUser, CategoryID: e.food.ID, CurrencyID: cur.ID,
				Amount: dec(tt.amount), AmountBase: dec("999999"), Date: core.NewDate(2024, 5, 1),
			})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if !tx.AmountBase.Equal(dec(tt.want)) {
				t.Errorf("AmountBase = %s, want %s", tx.AmountBase, tt.want)
			}
			if len(e.pub.synced) != 1 || e.pub.synced[0] != tx.ID {
				t.Errorf("published %v, want [%d]", e.pub.synced, tx.ID)
			}
		})
	}
}

func TestTransactionService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"zero amount", core.Transaction{UserID: testUser, CategoryID: e.food.ID, CurrencyID: e.byn.ID, Date: core.NewDate(2024, 5, 1)}, core.ErrInvalidAmount},
		{"missing date", core.Transaction{UserID: testUser, CategoryID: e.food.ID, CurrencyID: e.byn.ID, Amount: dec("1")}, core.ErrInvalidDate},
		{"unknown category", core.Transaction{UserID: testUser, CategoryID: 999, CurrencyID: e.byn.ID, Amount: dec("1"), Date: core.NewDate(2024, 5, 1)}, core.ErrMissingCategory},
		{"foreign category", core.Transaction{UserID: 2, CategoryID: e.food.ID, CurrencyID: e.byn.ID, Amount: dec("1"), Date: core.NewDate(2024, 5, 1)}, core.ErrMissingCategory},
		{"unknown currency", core.Transaction{UserID: testUser, CategoryID: e.food.ID, CurrencyID: 999, Amount: dec("1"), Date: core.NewDate(2024, 5, 1)}, core.ErrMissingCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.tx.Create(ctx, tt.tx); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	e := newEnv(t)
	e.pub.err = errBrokerDown

	tx := e.add(t, e.food, e.byn, "5", core.NewDate(2024, 5, 1))
	if tx.ID == 0 {
		t.Fatal("Create() returned no id")
	}
	if err := e.tx.Delete(context.Background(), testUser, tx.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(e.pub.deleted) != 1 {
		t.Errorf("delete events = %v, want one", e.pub.deleted)
	}
}

func TestTransactionService_NilPublisher(t *testing.T) {
	e := newEnv(t)
	svc := NewTransactionService(e.store, nil)
	if _, err := svc.Create(context.Background(), core.Transaction{
		UserID: testUser, CategoryID: e.food.ID, CurrencyID: e.byn.ID, Amount: dec("1"), Date: core.NewDate(2024, 5, 1),
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestTransactionService_UpdateRecomputesAtCurrentRate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tx := e.add(t, e.food, e.usd, "10", core.NewDate(2024, 5, 1))

	usd := e.usd
	usd.Rate = dec("3.5")
	if err := e.store.UpdateCurrency(ctx, usd); err != nil {
		t.Fatalf("UpdateCurrency() error = %v", err)
	}

	stale, _ := e.tx.Get(ctx, testUser, tx.ID)
	if !stale.AmountBase.Equal(dec("32")) {
		t.Errorf("AmountBase after rate change = %s, want stale 32", stale.AmountBase)
	}

	tx.Description = "edited"
	updated, err := e.tx.Update(ctx, tx)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.AmountBase.Equal(dec("35")) {
		t.Errorf("AmountBase after update = %s, want 35", updated.AmountBase)
	}

	tx.UserID = 2
	if _, err := e.tx.Update(ctx, tx); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update(other user) error = %v, want ErrNotFound", err)
	}
}

func TestTransactionService_ListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(t, e.food, e.byn, "1", core.NewDate(2024, 5, 1))
	e.add(t, e.salary, e.byn, "2", core.NewDate(2024, 5, 3))
	e.add(t, e.rent, e.byn, "3", core.NewDate(2024, 5, 2))

	all, err := e.tx.List(ctx, testUser, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || !all[0].Date.Equal(core.NewDate(2024, 5, 3).Time) {
		t.Errorf("List() not ordered by date desc: %+v", all)
	}

	expenses, _ := e.tx.List(ctx, testUser, core.TransactionFilter{Type: core.OpExpense})
	if len(expenses) != 2 {
		t.Errorf("List(expense) = %d rows, want 2", len(expenses))
	}
}
