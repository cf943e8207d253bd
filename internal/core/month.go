package core

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), 1)
}

// NextMonthStart returns the first day of the month following t's.
func NextMonthStart(t time.Time) Date {
	return Date{Time: MonthStart(t).AddDate(0, 1, 0)}
}

// MonthRange returns the half-open interval [start, next start) of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	return MonthStart(t).Time, NextMonthStart(t).Time
}

// ParseMonth parses YYYY-MM. Empty input yields the month containing now.
func ParseMonth(s string, now time.Time) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MonthStart(now), nil
	}
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Date{}, ErrInvalidMonth
	}
	return Date{Time: t}, nil
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}
