package services

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
	"budget/internal/storage/memory"
)

func TestPreferencesService_Ensure(t *testing.T) {
	ctx := context.Background()
	svc := NewPreferencesService(memory.New())

	first, err := svc.Ensure(ctx, 7)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if first.BudgetType != core.BudgetTypeMonthly {
		t.Errorf("BudgetType = %q, want monthly", first.BudgetType)
	}

	if _, err := svc.SetBudgetType(ctx, 7, core.BudgetTypeCategory); err != nil {
		t.Fatalf("SetBudgetType() error = %v", err)
	}
	again, err := svc.Ensure(ctx, 7)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if again.BudgetType != core.BudgetTypeCategory {
		t.Errorf("Ensure() after SetBudgetType = %q, want category", again.BudgetType)
	}

	if _, err := svc.Ensure(ctx, 0); !errors.Is(err, core.ErrMissingUser) {
		t.Errorf("Ensure(0) error = %v, want ErrMissingUser", err)
	}
	if _, err := svc.SetBudgetType(ctx, 7, "weekly"); !errors.Is(err, core.ErrInvalidBudgetType) {
		t.Errorf("SetBudgetType(weekly) error = %v, want ErrInvalidBudgetType", err)
	}
}
