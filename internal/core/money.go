// Package core provides money parsing and currency conversion.
//
// Amounts carry two decimal places and exchange rates four. Conversion into
// the base currency is a plain multiplication by the currency rate.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AmountPlaces = 2
	RatePlaces   = 4
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a positive monetary amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Extra
// fractional digits are rounded half-up to two places.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(AmountPlaces)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseRate parses a positive exchange rate rounded to four places.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, ErrInvalidRate
	}
	d = d.Round(RatePlaces)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return d, nil
}

// ParsePlan parses a non-negative plan amount. Empty input is zero.
func ParsePlan(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := parseDecimal(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(AmountPlaces), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromString(s)
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ToBase converts an amount in some currency into the base currency.
// The result is exact; callers persisting it use RoundBase.
func ToBase(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// RoundBase rounds a converted amount to the stored precision using
// banker's rounding.
func RoundBase(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(AmountPlaces)
}

// ToBase converts amount using the currency rate.
func (c Currency) ToBase(amount decimal.Decimal) decimal.Decimal {
	return ToBase(amount, c.Rate)
}

// Percent returns part / whole × 100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// Average returns total / count, or zero when count is zero.
func Average(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count)))
}
