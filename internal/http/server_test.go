package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/csvio"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage/memory"

	"github.com/shopspring/decimal"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

type downStore struct {
	*memory.Store
}

func (downStore) Ping(context.Context) error { return errors.New("database is locked") }

type testServer struct {
	t   *testing.T
	srv *Server
	svc *services.Services
	byn core.Currency
	usd core.Currency
}

func newTestServer(t *testing.T, cfg Config, store services.Store) *testServer {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	clock := func() time.Time { return time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC) }
	svc := services.New(store, nil, clock)
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Minute
		cfg.CacheSize = 32
	}
	srv := NewServer(cfg, svc, clock, log.New(log.Config{Output: io.Discard}))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ts := &testServer{t: t, srv: srv, svc: svc}
	ctx := context.Background()
	var err error
	if ts.byn, err = svc.Catalog.CreateCurrency(ctx, core.Currency{Code: "BYN", Name: "Belarusian ruble", Rate: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("CreateCurrency(BYN) error = %v", err)
	}
	if ts.usd, err = svc.Catalog.CreateCurrency(ctx, core.Currency{Code: "USD", Name: "US dollar", Rate: decimal.RequireFromString("3.2")}); err != nil {
		t.Fatalf("CreateCurrency(USD) error = %v", err)
	}
	return ts
}

func (ts *testServer) do(method, path string, user int64, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if user != 0 {
		req.Header.Set(userIDHeader, fmt.Sprint(user))
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) mustDo(method, path string, user int64, body string, wantStatus int, out any) {
	ts.t.Helper()
	rr := ts.do(method, path, user, body)
	if rr.Code != wantStatus {
		ts.t.Fatalf("%s %s status = %d, want %d; body: %s", method, path, rr.Code, wantStatus, rr.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			ts.t.Fatalf("%s %s decode: %v; body: %s", method, path, err, rr.Body.String())
		}
	}
}

func (ts *testServer) category(user int64, name string, income bool) core.Category {
	ts.t.Helper()
	var c core.Category
	ts.mustDo(http.MethodPost, "/categories", user, fmt.Sprintf(`{"name":%q,"is_income":%t}`, name, income), http.StatusCreated, &c)
	return c
}

func (ts *testServer) transaction(user int64, cat core.Category, cur core.Currency, amount, date string) core.Transaction {
	ts.t.Helper()
	var tx core.Transaction
	body := fmt.Sprintf(`{"category_id":%d,"currency_id":%d,"amount":%q,"date":%q}`, cat.ID, cur.ID, amount, date)
	ts.mustDo(http.MethodPost, "/transactions", user, body, http.StatusCreated, &tx)
	return tx
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(http.MethodGet, path, 0, "")
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rr.Code)
		}
		if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("GET %s X-Content-Type-Options = %q", path, got)
		}
	}

	down := newTestServer(t, Config{}, downStore{memory.New()})
	rr := down.do(http.MethodGet, "/readyz", 0, "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /readyz with failing store status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_ready") {
		t.Errorf("body = %s, want not_ready", rr.Body.String())
	}
}

func TestRequiresUser(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	rr := ts.do(http.MethodGet, "/transactions", 0, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing user status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(userIDHeader, "abc")
	rr = httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("non-numeric user status = %d, want 401", rr.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	books := ts.category(alice, "Books", false)

	tx := ts.transaction(alice, books, ts.usd, "10", "2024-05-02")
	if !tx.AmountBase.Equal(dec("32")) {
		t.Errorf("amount_base = %s, want 32", tx.AmountBase)
	}

	var page listBody[core.Transaction]
	ts.mustDo(http.MethodGet, "/transactions?type=expense&q=", alice, "", http.StatusOK, &page)
	if len(page.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(page.Items))
	}
	ts.mustDo(http.MethodGet, "/transactions?type=income", alice, "", http.StatusOK, &page)
	if len(page.Items) != 0 {
		t.Errorf("income items = %d, want 0", len(page.Items))
	}

	path := fmt.Sprintf("/transactions/%d", tx.ID)
	if rr := ts.do(http.MethodGet, path, bob, ""); rr.Code != http.StatusNotFound {
		t.Errorf("GET other user's transaction status = %d, want 404", rr.Code)
	}

	var updated core.Transaction
	body := fmt.Sprintf(`{"category_id":%d,"currency_id":%d,"amount":"20","date":"2024-05-03","description":"Atlas"}`, books.ID, ts.usd.ID)
	ts.mustDo(http.MethodPut, path, alice, body, http.StatusOK, &updated)
	if !updated.AmountBase.Equal(dec("64")) || updated.Description != "Atlas" {
		t.Errorf("updated = %+v, want amount_base 64 and description Atlas", updated)
	}

	ts.mustDo(http.MethodDelete, path, alice, "", http.StatusNoContent, nil)
	if rr := ts.do(http.MethodDelete, path, alice, ""); rr.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", rr.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	food := ts.category(alice, "Food", false)
	valid := func(amount, date string) string {
		return fmt.Sprintf(`{"category_id":%d,"currency_id":%d,"amount":%q,"date":%q}`, food.ID, ts.byn.ID, amount, date)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"zero amount", http.MethodPost, "/transactions", valid("0", "2024-05-01"), http.StatusUnprocessableEntity},
		{"bad date", http.MethodPost, "/transactions", valid("1", "2024-13-01"), http.StatusUnprocessableEntity},
		{"unknown category", http.MethodPost, "/transactions", fmt.Sprintf(`{"category_id":999,"currency_id":%d,"amount":"1"}`, ts.byn.ID), http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/transactions", `{"bogus":1}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/transactions", `{`, http.StatusBadRequest},
		{"trailing data", http.MethodPost, "/categories", `{"name":"A"}{}`, http.StatusBadRequest},
		{"bad id", http.MethodDelete, "/transactions/abc", "", http.StatusBadRequest},
		{"bad month", http.MethodGet, "/budgets/report?month=2024-13", "", http.StatusUnprocessableEntity},
		{"bad filter", http.MethodGet, "/transactions?type=transfer", "", http.StatusUnprocessableEntity},
		{"bad color", http.MethodPost, "/categories", `{"name":"Fun","color":"red"}`, http.StatusUnprocessableEntity},
		{"bad budget type", http.MethodPut, "/preferences", `{"budget_type":"weekly"}`, http.StatusUnprocessableEntity},
		{"no monthly plan", http.MethodGet, "/monthly-budgets/summary?month=2024-05", "", http.StatusNotFound},
		{"duplicate currency", http.MethodPost, "/currencies", `{"code":"usd","name":"Dollar","rate":"3"}`, http.StatusConflict},
		{"currency in use", http.MethodDelete, fmt.Sprintf("/currencies/%d", ts.byn.ID), "", http.StatusConflict},
		{"unknown currency rate", http.MethodPut, "/currencies/XYZ/rate", `{"rate":"2"}`, http.StatusNotFound},
	}

	ts.transaction(alice, food, ts.byn, "5", "2024-05-01")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(tt.method, tt.path, alice, tt.body)
			if rr.Code != tt.want {
				t.Errorf("%s %s status = %d, want %d; body: %s", tt.method, tt.path, rr.Code, tt.want, rr.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error body = %q, want JSON error", rr.Body.String())
			}
		})
	}
}

func TestBudgetReport(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	food := ts.category(alice, "Food", false)

	body := fmt.Sprintf(`{"category_id":%d,"currency_id":%d,"limit":"100","month":"2024-05"}`, food.ID, ts.byn.ID)
	ts.mustDo(http.MethodPost, "/budgets", alice, body, http.StatusCreated, nil)
	ts.transaction(alice, food, ts.byn, "70", "2024-05-03")
	ts.transaction(alice, food, ts.byn, "50", "2024-05-20")
	ts.transaction(alice, food, ts.byn, "999", "2024-06-01")

	var report listBody[core.CategoryBudgetLine]
	ts.mustDo(http.MethodGet, "/budgets/report?month=2024-05", alice, "", http.StatusOK, &report)
	if len(report.Items) != 1 {
		t.Fatalf("len(report) = %d, want 1", len(report.Items))
	}
	line := report.Items[0]
	if !line.Spent.Equal(dec("120")) || !line.Left.Equal(dec("-20")) || !line.Exceeded {
		t.Errorf("line = spent %s left %s exceeded %t, want 120 -20 true", line.Spent, line.Left, line.Exceeded)
	}

	ts.mustDo(http.MethodGet, "/budgets/report?month=2024-05", bob, "", http.StatusOK, &report)
	if len(report.Items) != 0 {
		t.Errorf("other user's report = %d lines, want 0", len(report.Items))
	}
}

func TestMonthlyBudgets(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	salary := ts.category(alice, "Salary", true)
	rent := ts.category(alice, "Rent", false)

	body := fmt.Sprintf(`{"currency_id":%d,"month":"2024-05","income_plan":"1000","expense_plan":"800"}`, ts.byn.ID)
	var plan core.MonthlyBudget
	ts.mustDo(http.MethodPost, "/monthly-budgets", alice, body, http.StatusCreated, &plan)
	ts.mustDo(http.MethodPost, "/monthly-budgets", alice, body, http.StatusConflict, nil)

	ts.transaction(alice, salary, ts.byn, "500", "2024-05-10")
	ts.transaction(alice, rent, ts.byn, "900", "2024-05-11")

	var summary core.MonthlySummary
	ts.mustDo(http.MethodGet, "/monthly-budgets/summary?month=2024-05", alice, "", http.StatusOK, &summary)
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"income_progress", summary.IncomeProgress, "50"},
		{"expense_progress", summary.ExpenseProgress, "112.5"},
		{"balance_plan", summary.BalancePlan, "200"},
		{"balance_actual", summary.BalanceActual, "-400"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}

	update := fmt.Sprintf(`{"currency_id":%d,"month":"2024-05","income_plan":"1000","expense_plan":"0","notes":"frugal"}`, ts.byn.ID)
	ts.mustDo(http.MethodPut, fmt.Sprintf("/monthly-budgets/%d", plan.ID), alice, update, http.StatusOK, nil)
	ts.mustDo(http.MethodGet, "/monthly-budgets/summary", alice, "", http.StatusOK, &summary)
	if !summary.ExpenseProgress.IsZero() || summary.Notes != "frugal" {
		t.Errorf("after update expense_progress = %s notes = %q, want 0 and frugal", summary.ExpenseProgress, summary.Notes)
	}
}

func TestAnalyticsCache(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	food := ts.category(alice, "Food", false)
	ts.transaction(alice, food, ts.byn, "10", "2024-05-01")

	total := func() decimal.Decimal {
		t.Helper()
		var report core.AnalyticsReport
		ts.mustDo(http.MethodGet, "/analytics?month=2024-05", alice, "", http.StatusOK, &report)
		return report.Total
	}

	if got := total(); !got.Equal(dec("10")) {
		t.Fatalf("total = %s, want 10", got)
	}

	// Writes outside the API are not seen until the entry expires.
	if _, err := ts.svc.Transactions.Create(context.Background(), core.Transaction{
		UserID: alice, CategoryID: food.ID, CurrencyID: ts.byn.ID, Amount: dec("1"), Date: core.NewDate(2024, 5, 2),
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := total(); !got.Equal(dec("10")) {
		t.Errorf("cached total = %s, want 10", got)
	}

	ts.transaction(alice, food, ts.byn, "5", "2024-05-03")
	if got := total(); !got.Equal(dec("16")) {
		t.Errorf("total after API write = %s, want 16", got)
	}

	var history core.History
	ts.mustDo(http.MethodGet, "/summary", alice, "", http.StatusOK, &history)
	if len(history.Months) != 1 || !history.Months[0].ExpensesBase.Equal(dec("16")) {
		t.Errorf("history = %+v, want one month with 16 expenses", history.Months)
	}
}

func TestRecurringProcess(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	gym := ts.category(alice, "Gym", false)

	body := fmt.Sprintf(`{"category_id":%d,"currency_id":%d,"amount":"50","description":"Membership","frequency":"monthly","start_date":"2024-05-01"}`, gym.ID, ts.byn.ID)
	var item core.RecurringTransaction
	ts.mustDo(http.MethodPost, "/recurring", alice, body, http.StatusCreated, &item)
	if item.NextDate.String() != "2024-05-01" || !item.IsActive {
		t.Fatalf("created = %+v, want active with next_date 2024-05-01", item)
	}

	var res services.ProcessResult
	ts.mustDo(http.MethodPost, "/recurring/process", alice, "", http.StatusOK, &res)
	if res.Created != 1 {
		t.Errorf("first run created = %d, want 1", res.Created)
	}
	ts.mustDo(http.MethodPost, "/recurring/process", alice, "", http.StatusOK, &res)
	if res.Due != 0 || res.Created != 0 {
		t.Errorf("second run = %+v, want nothing due", res)
	}

	var page listBody[core.Transaction]
	ts.mustDo(http.MethodGet, "/transactions", alice, "", http.StatusOK, &page)
	if len(page.Items) != 1 || page.Items[0].Description != core.RecurringDescriptionPrefix+"Membership" {
		t.Errorf("transactions = %+v, want one recurring payment", page.Items)
	}

	var items listBody[core.RecurringTransaction]
	ts.mustDo(http.MethodGet, "/recurring", alice, "", http.StatusOK, &items)
	if len(items.Items) != 1 || items.Items[0].NextDate.String() != "2024-05-31" {
		t.Errorf("recurring = %+v, want next_date 2024-05-31", items.Items)
	}

	path := fmt.Sprintf("/recurring/%d", item.ID)
	ts.mustDo(http.MethodPatch, path, alice, `{"is_active":false}`, http.StatusNoContent, nil)
	ts.mustDo(http.MethodDelete, path, alice, "", http.StatusNoContent, nil)
	ts.mustDo(http.MethodDelete, path, alice, "", http.StatusNotFound, nil)
}

func TestImportExport(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	csv := "Date,Category,Amount,Description\n2024-05-01,Books,12.50,Novel\nbad,row\n2024-05-02,Books,abc,Broken\n"
	var res services.ImportResult
	ts.mustDo(http.MethodPost, "/import", alice, csv, http.StatusOK, &res)
	if res.Imported != 1 || res.Skipped != 2 {
		t.Errorf("import = %+v, want 1 imported 2 skipped", res)
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("file", "more.csv")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	io.WriteString(fw, csvio.BOM+"Date,Category,Amount,Description\n2024-05-03,Cafe,4,Latte\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", &form)
	req.Header.Set(userIDHeader, "1")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"imported":1`) {
		t.Fatalf("multipart import status = %d body = %s", rr.Code, rr.Body.String())
	}

	rr = ts.do(http.MethodGet, "/export.csv", alice, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	want := csvio.BOM + "Date,Category,Amount,Description\n2024-05-03,Cafe,4.00,Latte\n2024-05-01,Books,12.50,Novel\n"
	if got := rr.Body.String(); got != want {
		t.Errorf("export = %q, want %q", got, want)
	}
}

func TestDashboardAndPreferences(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	ts.category(alice, "Salary", true)
	ts.category(alice, "Food", false)

	var d services.Dashboard
	ts.mustDo(http.MethodGet, "/dashboard", alice, "", http.StatusOK, &d)
	if d.BudgetType != core.BudgetTypeMonthly || d.MonthlySummary != nil {
		t.Errorf("dashboard = %+v, want monthly mode without summary", d)
	}
	if len(d.IncomeCategories) != 1 || len(d.ExpenseCategories) != 1 {
		t.Errorf("categories = %d income %d expense, want 1 and 1", len(d.IncomeCategories), len(d.ExpenseCategories))
	}

	var prefs core.UserPreferences
	ts.mustDo(http.MethodPut, "/preferences", alice, `{"budget_type":"category"}`, http.StatusOK, &prefs)
	ts.mustDo(http.MethodGet, "/preferences", alice, "", http.StatusOK, &prefs)
	if prefs.BudgetType != core.BudgetTypeCategory {
		t.Errorf("budget_type = %q, want category", prefs.BudgetType)
	}

	ts.mustDo(http.MethodGet, "/dashboard", alice, "", http.StatusOK, &d)
	if d.BudgetType != core.BudgetTypeCategory || d.MonthlySummary != nil {
		t.Errorf("dashboard = %+v, want category mode", d)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: 2}, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, ts.do(http.MethodGet, "/currencies", alice, "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
	if got := ts.do(http.MethodGet, "/currencies", bob, "").Code; got != http.StatusOK {
		t.Errorf("other user status = %d, want 200", got)
	}
}
