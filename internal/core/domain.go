package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
)

const (
	BudgetTypeMonthly  BudgetType = "monthly"
	BudgetTypeCategory BudgetType = "category"
)

const (
	OpAll     OperationType = "all"
	OpIncome  OperationType = "income"
	OpExpense OperationType = "expense"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6c757d"

// RecurringDescriptionPrefix is prepended to the description of every
// transaction materialized from a recurring template.
const RecurringDescriptionPrefix = "Recurring payment: "

// Description limits count characters, not bytes. A template leaves room
// for RecurringDescriptionPrefix so its transactions always validate.
const (
	MaxDescription          = 255
	MaxRecurringDescription = MaxDescription - len(RecurringDescriptionPrefix)
)

const dateLayout = "2006-01-02"

type (
	Frequency     string
	BudgetType    string
	OperationType string

	Date struct {
		time.Time
	}

	Currency struct {
		ID     int64           `json:"id"`
		Code   string          `json:"code"`
		Name   string          `json:"name"`
		Symbol string          `json:"symbol"`
		Rate   decimal.Decimal `json:"rate"`
	}

	Category struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"user_id"`
		Name     string `json:"name"`
		IsIncome bool   `json:"is_income"`
		Color    string `json:"color"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		CategoryID  int64           `json:"category_id"`
		CurrencyID  int64           `json:"currency_id"`
		Amount      decimal.Decimal `json:"amount"`
		AmountBase  decimal.Decimal `json:"amount_base"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		// Set only for rows materialized by the scheduler.
		RecurringID    int64 `json:"recurring_id,omitempty"`
		OccurrenceDate Date  `json:"occurrence_date,omitzero"`
	}

	Budget struct {
		ID         int64           `json:"id"`
		UserID     int64           `json:"user_id"`
		CategoryID int64           `json:"category_id"`
		CurrencyID int64           `json:"currency_id"`
		Limit      decimal.Decimal `json:"limit"`
		Month      Date            `json:"month"`
	}

	MonthlyBudget struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		CurrencyID  int64           `json:"currency_id"`
		Month       Date            `json:"month"`
		IncomePlan  decimal.Decimal `json:"income_plan"`
		ExpensePlan decimal.Decimal `json:"expense_plan"`
		Notes       string          `json:"notes"`
	}

	RecurringTransaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		CategoryID  int64           `json:"category_id"`
		CurrencyID  int64           `json:"currency_id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Frequency   Frequency       `json:"frequency"`
		StartDate   Date            `json:"start_date"`
		NextDate    Date            `json:"next_date"`
		IsActive    bool            `json:"is_active"`
	}

	UserPreferences struct {
		UserID     int64      `json:"user_id"`
		BudgetType BudgetType `json:"budget_type"`
	}

	// TransactionFilter narrows a transaction listing. Zero values match all.
	// From and To are inclusive.
	TransactionFilter struct {
		Type       OperationType
		Search     string
		CategoryID int64
		From       Date
		To         Date
	}

	// SumFilter selects transactions for an amount_base sum over the
	// half-open interval [From, To).
	SumFilter struct {
		UserID     int64
		CategoryID int64
		Type       OperationType
		From       time.Time
		To         time.Time
	}
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidRate          = errors.New("invalid rate")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidCurrencyCode  = errors.New("currency code must be 3 letters")
	ErrInvalidColor         = errors.New("color must be #RRGGBB")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrInvalidBudgetType    = errors.New("invalid budget type")
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrEmptyName            = errors.New("empty name")
	ErrMissingUser          = errors.New("missing user")
	ErrMissingCategory      = errors.New("missing category")
	ErrMissingCurrency      = errors.New("missing currency")
	ErrDescriptionTooLong   = errors.New("description too long")
	ErrMonthlyBudgetExists  = errors.New("monthly budget for this month already exists")
	ErrCurrencyInUse        = errors.New("currency is referenced and cannot be deleted")
	ErrCurrencyExists       = errors.New("currency code already exists")
	ErrDuplicateOccurrence  = errors.New("recurring occurrence already materialized")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (f Frequency) Validate() error {
	switch f {
	case Monthly, Weekly:
		return nil
	}
	return ErrInvalidFrequency
}

func (b BudgetType) Validate() error {
	switch b {
	case BudgetTypeMonthly, BudgetTypeCategory:
		return nil
	}
	return ErrInvalidBudgetType
}

// ParseOperationType maps an empty string to OpAll.
func ParseOperationType(s string) (OperationType, error) {
	switch op := OperationType(strings.ToLower(strings.TrimSpace(s))); op {
	case "":
		return OpAll, nil
	case OpAll, OpIncome, OpExpense:
		return op, nil
	}
	return "", ErrInvalidOperationType
}

// Matches reports whether a category of the given kind passes the filter.
func (o OperationType) Matches(isIncome bool) bool {
	switch o {
	case OpIncome:
		return isIncome
	case OpExpense:
		return !isIncome
	}
	return true
}

func (c Currency) Validate() error {
	if len(c.Code) != 3 {
		return ErrInvalidCurrencyCode
	}
	for _, r := range c.Code {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrencyCode
		}
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Rate.IsPositive() {
		return ErrInvalidRate
	}
	return nil
}

// IsBase reports whether the currency is the base currency (rate 1).
func (c Currency) IsBase() bool {
	return c.Rate.Equal(decimal.NewFromInt(1))
}

func (c Category) Validate() error {
	if c.UserID == 0 {
		return ErrMissingUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.UserID == 0 {
		return ErrMissingUser
	}
	if t.CategoryID == 0 {
		return ErrMissingCategory
	}
	if t.CurrencyID == 0 {
		return ErrMissingCurrency
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if b.UserID == 0 {
		return ErrMissingUser
	}
	if b.CategoryID == 0 {
		return ErrMissingCategory
	}
	if b.CurrencyID == 0 {
		return ErrMissingCurrency
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	if b.Month.IsZero() {
		return ErrInvalidMonth
	}
	return nil
}

func (m MonthlyBudget) Validate() error {
	if m.UserID == 0 {
		return ErrMissingUser
	}
	if m.CurrencyID == 0 {
		return ErrMissingCurrency
	}
	if m.IncomePlan.IsNegative() || m.ExpensePlan.IsNegative() {
		return ErrInvalidAmount
	}
	if m.Month.IsZero() {
		return ErrInvalidMonth
	}
	return nil
}

func (r RecurringTransaction) Validate() error {
	if r.UserID == 0 {
		return ErrMissingUser
	}
	if r.CategoryID == 0 {
		return ErrMissingCategory
	}
	if r.CurrencyID == 0 {
		return ErrMissingCurrency
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if err := r.StartDate.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Description) > MaxRecurringDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

// TruncateDescription cuts s to at most limit characters.
func TruncateDescription(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// IsDue reports whether the template should fire on the given day.
func (r RecurringTransaction) IsDue(today Date) bool {
	return r.IsActive && !r.NextDate.After(today.Time)
}
