package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

// DateOnly truncates to UTC midnight. The ledger works at calendar-day
// granularity; storing normalized instants keeps SQLite's text comparison
// of dates consistent.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dayRange converts an inclusive [start, end] day pair into the half-open
// [start, end+1d) window the repositories query with.
func dayRange(start, end time.Time) (time.Time, time.Time) {
	return DateOnly(start), DateOnly(end).AddDate(0, 0, 1)
}

// optionalDayRange does the same for optional bounds.
func optionalDayRange(start, end *time.Time) (*time.Time, *time.Time) {
	var s, e *time.Time
	if start != nil {
		d := DateOnly(*start)
		s = &d
	}
	if end != nil {
		d := DateOnly(*end).AddDate(0, 0, 1)
		e = &d
	}
	return s, e
}

// signedAmount maps (type, amount) to the balance delta the transaction
// causes: +amount for income, -amount for expense.
func signedAmount(txType string, amount decimal.Decimal) decimal.Decimal {
	if txType == repository.TypeExpense {
		return amount.Neg()
	}
	return amount
}
