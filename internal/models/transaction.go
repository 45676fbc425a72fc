// Package models provides the canonical data structures shared by the loaders,
// the mapping table, the aggregator and the exchange codec.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one financial movement read from a bookkeeping export.
//
// Transactions are values: loaders build them once through TransactionBuilder and
// every consumer works on copies. A zero BookingDate means the date is absent.
type Transaction struct {
	AccountID   string          `json:"account_id" yaml:"account_id"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	BookingDate time.Time       `json:"booking_date" yaml:"booking_date"`
	Description string          `json:"description" yaml:"description"`
	SourceRow   int             `json:"source_row" yaml:"source_row"`
}

// HasDate reports whether the transaction carries a booking date.
func (t Transaction) HasDate() bool {
	return !t.BookingDate.IsZero()
}

// Equal compares field by field: amounts by value, dates by calendar day.
func (t Transaction) Equal(other Transaction) bool {
	if t.AccountID != other.AccountID || t.Description != other.Description || t.SourceRow != other.SourceRow {
		return false
	}
	if !t.Amount.Equal(other.Amount) {
		return false
	}
	if t.HasDate() != other.HasDate() {
		return false
	}
	if !t.HasDate() {
		return true
	}
	return SameDay(t.BookingDate, other.BookingDate)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EqualTransactions compares two ordered transaction sets with Transaction.Equal.
func EqualTransactions(a, b []Transaction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
