// Package memory is an in-process Store used by tests and DATA_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu           sync.Mutex
	nextID       int64
	currencies   []core.Currency
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
	monthly      []core.MonthlyBudget
	recurring    []core.RecurringTransaction
	prefs        map[int64]core.UserPreferences
}

func New() *Store {
	return &Store{prefs: make(map[int64]core.UserPreferences)}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
}

// Currencies

func (s *Store) CreateCurrency(_ context.Context, c core.Currency) (core.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.currencies {
		if existing.Code == c.Code {
			return core.Currency{}, fmt.Errorf("create currency %s: %w", c.Code, core.ErrCurrencyExists)
		}
	}
	c.ID = s.id()
	s.currencies = append(s.currencies, c)
	return c, nil
}

func (s *Store) GetCurrency(_ context.Context, id int64) (core.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.currencies {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Currency{}, notFound("currency", id)
}

func (s *Store) GetCurrencyByCode(_ context.Context, code string) (core.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.currencies {
		if c.Code == code {
			return c, nil
		}
	}
	return core.Currency{}, fmt.Errorf("currency %s: %w", code, core.ErrNotFound)
}

func (s *Store) ListCurrencies(_ context.Context) ([]core.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Currency(nil), s.currencies...), nil
}

func (s *Store) UpdateCurrency(_ context.Context, c core.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.currencies {
		if s.currencies[i].ID == c.ID {
			c.Code = s.currencies[i].Code
			s.currencies[i] = c
			return nil
		}
	}
	return notFound("currency", c.ID)
}

func (s *Store) DeleteCurrency(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inUse := false
	for _, t := range s.transactions {
		inUse = inUse || t.CurrencyID == id
	}
	for _, b := range s.budgets {
		inUse = inUse || b.CurrencyID == id
	}
	for _, b := range s.monthly {
		inUse = inUse || b.CurrencyID == id
	}
	for _, r := range s.recurring {
		inUse = inUse || r.CurrencyID == id
	}
	if inUse {
		return fmt.Errorf("delete currency %d: %w", id, core.ErrCurrencyInUse)
	}
	for i, c := range s.currencies {
		if c.ID == id {
			s.currencies = append(s.currencies[:i], s.currencies[i+1:]...)
			return nil
		}
	}
	return notFound("currency", id)
}

// Categories

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	c.ID = s.id()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, userID, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category(userID, id)
}

func (s *Store) category(userID, id int64) (core.Category, error) {
	for _, c := range s.categories {
		if c.ID == id && c.UserID == userID {
			return c, nil
		}
	}
	return core.Category{}, notFound("category", id)
}

func (s *Store) FindCategoryByName(_ context.Context, userID int64, name string, isIncome bool) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name && c.IsIncome == isIncome {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteCategory cascades to transactions, budgets and recurring templates.
func (s *Store) DeleteCategory(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.categories {
		if c.ID == id && c.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return notFound("category", id)
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	s.transactions = filter(s.transactions, func(t core.Transaction) bool { return t.CategoryID != id })
	s.budgets = filter(s.budgets, func(b core.Budget) bool { return b.CategoryID != id })
	s.recurring = filter(s.recurring, func(r core.RecurringTransaction) bool { return r.CategoryID != id })
	return nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.RecurringID != 0 {
		for _, existing := range s.transactions {
			if existing.RecurringID == t.RecurringID && existing.OccurrenceDate.Equal(t.OccurrenceDate.Time) {
				return core.Transaction{}, fmt.Errorf("create transaction: %w", core.ErrDuplicateOccurrence)
			}
		}
	}
	t.ID = s.id()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.transactions {
		if existing.ID == t.ID && existing.UserID == t.UserID {
			t.RecurringID = existing.RecurringID
			t.OccurrenceDate = existing.OccurrenceDate
			s.transactions[i] = t
			return nil
		}
	}
	return notFound("transaction", t.ID)
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			return t, nil
		}
	}
	return core.Transaction{}, notFound("transaction", id)
}

func (s *Store) GetTransactionByID(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, notFound("transaction", id)
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return notFound("transaction", id)
}

func (s *Store) isIncome(categoryID int64) bool {
	for _, c := range s.categories {
		if c.ID == categoryID {
			return c.IsIncome
		}
	}
	return false
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []core.Transaction
	for _, t := range s.transactions {
		switch {
		case t.UserID != userID:
			continue
		case !f.Type.Matches(s.isIncome(t.CategoryID)):
			continue
		case search != "" && !strings.Contains(strings.ToLower(t.Description), search):
			continue
		case f.CategoryID != 0 && t.CategoryID != f.CategoryID:
			continue
		case !f.From.IsZero() && t.Date.Before(f.From.Time):
			continue
		case !f.To.IsZero() && t.Date.After(f.To.Time):
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func inRange(d core.Date, from, to time.Time) bool {
	return !d.Before(from) && d.Before(to)
}

func (s *Store) SumAmountBase(_ context.Context, f core.SumFilter) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID != f.UserID || !inRange(t.Date, f.From, f.To) {
			continue
		}
		if f.CategoryID != 0 && t.CategoryID != f.CategoryID {
			continue
		}
		if !f.Type.Matches(s.isIncome(t.CategoryID)) {
			continue
		}
		total = total.Add(t.AmountBase)
	}
	return total, nil
}

func (s *Store) SumByCategory(_ context.Context, userID int64, from, to time.Time, isIncome bool) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[int64]*core.CategoryTotal)
	var order []int64
	for _, t := range s.transactions {
		if t.UserID != userID || !inRange(t.Date, from, to) {
			continue
		}
		cat, err := s.category(userID, t.CategoryID)
		if err != nil || cat.IsIncome != isIncome {
			continue
		}
		ct, ok := totals[cat.ID]
		if !ok {
			ct = &core.CategoryTotal{CategoryID: cat.ID, Name: cat.Name, Color: cat.Color}
			totals[cat.ID] = ct
			order = append(order, cat.ID)
		}
		ct.Total = ct.Total.Add(t.AmountBase)
	}
	out := make([]core.CategoryTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *totals[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

func (s *Store) MonthlyTotals(_ context.Context, userID int64, op core.OperationType) ([]core.MonthTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byMonth := make(map[string]*core.MonthTotal)
	for _, t := range s.transactions {
		if t.UserID != userID || !op.Matches(s.isIncome(t.CategoryID)) {
			continue
		}
		key := core.MonthKey(t.Date.Time)
		mt, ok := byMonth[key]
		if !ok {
			mt = &core.MonthTotal{Month: core.MonthStart(t.Date.Time)}
			byMonth[key] = mt
		}
		mt.Total = mt.Total.Add(t.AmountBase)
	}
	out := make([]core.MonthTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month.Time) })
	return out, nil
}

func (s *Store) MonthlyCurrencyTotals(_ context.Context, userID int64) ([]core.MonthCurrencyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type key struct {
		month    string
		code     string
		isIncome bool
	}
	groups := make(map[key]*core.MonthCurrencyTotal)
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		var cur core.Currency
		for _, c := range s.currencies {
			if c.ID == t.CurrencyID {
				cur = c
				break
			}
		}
		k := key{core.MonthKey(t.Date.Time), cur.Code, s.isIncome(t.CategoryID)}
		g, ok := groups[k]
		if !ok {
			g = &core.MonthCurrencyTotal{
				Month:          core.MonthStart(t.Date.Time),
				CurrencyCode:   cur.Code,
				CurrencySymbol: cur.Symbol,
				IsIncome:       k.isIncome,
			}
			groups[k] = g
		}
		g.Total = g.Total.Add(t.Amount)
		g.TotalBase = g.TotalBase.Add(t.AmountBase)
	}
	out := make([]core.MonthCurrencyTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Month.Equal(b.Month.Time) {
			return a.Month.After(b.Month.Time)
		}
		if a.CurrencyCode != b.CurrencyCode {
			return a.CurrencyCode < b.CurrencyCode
		}
		return a.IsIncome && !b.IsIncome
	})
	return out, nil
}

func (s *Store) TransactionMonths(_ context.Context, userID int64) ([]core.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []core.Date
	for _, t := range s.transactions {
		key := core.MonthKey(t.Date.Time)
		if t.UserID != userID || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, core.MonthStart(t.Date.Time))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j].Time) })
	return out, nil
}

// Budgets

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	b.Month = core.MonthStart(b.Month.Time)
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month.After(out[j].Month.Time) })
	return out, nil
}

func (s *Store) ListBudgetsForMonth(_ context.Context, userID int64, month core.Date) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := core.MonthStart(month.Time)
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month.Equal(start.Time) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return notFound("budget", id)
}

// Monthly budgets

func (s *Store) monthTaken(userID int64, month core.Date, exceptID int64) bool {
	for _, b := range s.monthly {
		if b.UserID == userID && b.Month.Equal(month.Time) && b.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) CreateMonthlyBudget(_ context.Context, b core.MonthlyBudget) (core.MonthlyBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Month = core.MonthStart(b.Month.Time)
	if s.monthTaken(b.UserID, b.Month, 0) {
		return core.MonthlyBudget{}, fmt.Errorf("create monthly budget %s: %w",
			core.MonthKey(b.Month.Time), core.ErrMonthlyBudgetExists)
	}
	b.ID = s.id()
	s.monthly = append(s.monthly, b)
	return b, nil
}

func (s *Store) UpdateMonthlyBudget(_ context.Context, b core.MonthlyBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Month = core.MonthStart(b.Month.Time)
	for i, existing := range s.monthly {
		if existing.ID == b.ID && existing.UserID == b.UserID {
			if s.monthTaken(b.UserID, b.Month, b.ID) {
				return fmt.Errorf("update monthly budget %d: %w", b.ID, core.ErrMonthlyBudgetExists)
			}
			s.monthly[i] = b
			return nil
		}
	}
	return notFound("monthly budget", b.ID)
}

func (s *Store) GetMonthlyBudget(_ context.Context, userID, id int64) (core.MonthlyBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.monthly {
		if b.ID == id && b.UserID == userID {
			return b, nil
		}
	}
	return core.MonthlyBudget{}, notFound("monthly budget", id)
}

func (s *Store) FindMonthlyBudget(_ context.Context, userID int64, month core.Date) (core.MonthlyBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := core.MonthStart(month.Time)
	for _, b := range s.monthly {
		if b.UserID == userID && b.Month.Equal(start.Time) {
			return b, nil
		}
	}
	return core.MonthlyBudget{}, fmt.Errorf("monthly budget %s: %w", core.MonthKey(start.Time), core.ErrNotFound)
}

func (s *Store) ListMonthlyBudgets(_ context.Context, userID int64) ([]core.MonthlyBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MonthlyBudget
	for _, b := range s.monthly {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.After(out[j].Month.Time) })
	return out, nil
}

// Recurring

func (s *Store) CreateRecurring(_ context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	s.recurring = append(s.recurring, r)
	return r, nil
}

func (s *Store) GetRecurring(_ context.Context, userID, id int64) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recurring {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return core.RecurringTransaction{}, notFound("recurring transaction", id)
}

func (s *Store) ListRecurring(_ context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return s.listRecurring(func(r core.RecurringTransaction) bool { return r.UserID == userID })
}

func (s *Store) ListDueRecurring(_ context.Context, userID int64, today core.Date) ([]core.RecurringTransaction, error) {
	return s.listRecurring(func(r core.RecurringTransaction) bool {
		return r.UserID == userID && r.IsDue(today)
	})
}

func (s *Store) listRecurring(keep func(core.RecurringTransaction) bool) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringTransaction
	for _, r := range s.recurring {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextDate.Before(out[j].NextDate.Time) })
	return out, nil
}

func (s *Store) AdvanceRecurring(_ context.Context, id int64, from, to core.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id {
			if !s.recurring[i].NextDate.Equal(from.Time) {
				return false, nil
			}
			s.recurring[i].NextDate = to
			return true, nil
		}
	}
	return false, notFound("recurring transaction", id)
}

func (s *Store) SetRecurringActive(_ context.Context, userID, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id && s.recurring[i].UserID == userID {
			s.recurring[i].IsActive = active
			return nil
		}
	}
	return notFound("recurring transaction", id)
}

func (s *Store) DeleteRecurring(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.recurring {
		if r.ID == id && r.UserID == userID {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			for j := range s.transactions {
				if s.transactions[j].RecurringID == id {
					s.transactions[j].RecurringID = 0
				}
			}
			return nil
		}
	}
	return notFound("recurring transaction", id)
}

// Preferences

func (s *Store) GetOrCreatePreferences(_ context.Context, userID int64) (core.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		p = core.UserPreferences{UserID: userID, BudgetType: core.BudgetTypeMonthly}
		s.prefs[userID] = p
	}
	return p, nil
}

func (s *Store) SavePreferences(_ context.Context, p core.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = p
	return nil
}
