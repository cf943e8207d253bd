package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12.5", "12.50"},
		{"999.999", "1,000.00"},
		{"1234567.5", "1,234,567.50"},
		{"-400", "-400.00"},
		{"-1234.5", "-1,234.50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatAmount(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(decimal.RequireFromString("112.5")); got != "112.5%" {
		t.Errorf("FormatPercent() = %q, want 112.5%%", got)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Budgets",
		Headers: []string{"Category", "Left"},
		Rows:    [][]string{{"Food", "-20.00"}, Separator, {"Rent", "5.00"}},
	})
	for _, want := range []string{"Budgets", "Category", "Food", "-20.00", "Rent", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderTable() missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 8 {
		t.Errorf("RenderTable() lines = %d, want 8:\n%s", got, out)
	}
	if RenderTable(Table{}) != "" {
		t.Error("RenderTable(empty) should be empty")
	}
}

func TestRenderHistory(t *testing.T) {
	h := core.BuildHistory([]core.MonthCurrencyTotal{
		{Month: core.NewDate(2024, 5, 1), CurrencyCode: "BYN", IsIncome: true, Total: decimal.NewFromInt(1000), TotalBase: decimal.NewFromInt(1000)},
		{Month: core.NewDate(2024, 5, 1), CurrencyCode: "BYN", Total: decimal.NewFromInt(1500), TotalBase: decimal.NewFromInt(1500)},
	}, nil)
	out := RenderHistory(h)
	for _, want := range []string{"2024-05", "1,000.00", "1,500.00", "-500.00", "2024"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderHistory() missing %q:\n%s", want, out)
		}
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "nonsense")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Error("LoadAndValidateConfig() error = nil, want invalid backend")
	}

	cfg, err := LoadAndValidateConfig(func(c *config.Config) { c.DataBackend = "memory" })
	if err != nil {
		t.Fatalf("LoadAndValidateConfig() with override error = %v", err)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
}

func TestInitBackendMemory(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	res, err := InitBackend(context.Background(), logger, &config.Config{DataBackend: "memory"})
	if err != nil {
		t.Fatalf("InitBackend() error = %v", err)
	}
	defer res.Cleanup()
	if res.Publisher != nil {
		t.Error("Publisher should be nil without AMQP_URL")
	}
}

func TestGracefulShutdownOnCancel(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	parent, cancel := context.WithCancel(context.Background())

	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(parent, logger, time.Second, func(context.Context) error {
		close(cleaned)
		return nil
	})
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("done not closed after parent cancel")
	}
	select {
	case <-cleaned:
	default:
		t.Error("cleanup did not run")
	}
	if ctx.Err() == nil {
		t.Error("ctx not cancelled")
	}
}
