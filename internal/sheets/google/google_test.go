package google

import (
	"context"
	"strings"
	"testing"

	"budget/internal/core"
	ports "budget/internal/sheets"

	"github.com/shopspring/decimal"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("New() error = %v, want missing GOOGLE_SPREADSHEET_ID", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("New() error = %v, want missing credentials", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id", CredentialsFile: t.TempDir() + "/absent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("New() error = %v, want read error", err)
	}
}

func TestClient_UninitializedService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: DefaultSheetName}
	row := ports.Row{TransactionID: 1, Date: core.NewDate(2024, 5, 1), Amount: decimal.NewFromInt(1)}

	if _, err := c.Upsert(context.Background(), row); err == nil {
		t.Error("Upsert() error = nil, want not initialized")
	}
	if err := c.DeleteByTransactionID(context.Background(), 1); err == nil {
		t.Error("DeleteByTransactionID() error = nil, want not initialized")
	}
}
