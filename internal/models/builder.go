package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionBuilder provides a fluent API for constructing validated transactions.
type TransactionBuilder struct {
	tx  Transaction
	err error
}

// NewTransactionBuilder creates a builder with a zero amount and no date.
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{
		tx: Transaction{Amount: decimal.Zero},
	}
}

// WithAccount sets the account identifier; surrounding whitespace is dropped.
func (b *TransactionBuilder) WithAccount(accountID string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.AccountID = strings.TrimSpace(accountID)
	return b
}

// WithAmount sets the signed amount.
func (b *TransactionBuilder) WithAmount(amount decimal.Decimal) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Amount = amount
	return b
}

// WithAmountString parses amount with decimal.NewFromString (period separator, no grouping).
func (b *TransactionBuilder) WithAmountString(amount string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		b.err = fmt.Errorf("invalid amount %q: %w", amount, err)
		return b
	}
	b.tx.Amount = d
	return b
}

// WithBookingDate sets the booking date, truncated to its calendar day.
// A zero time leaves the date absent.
func (b *TransactionBuilder) WithBookingDate(date time.Time) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.BookingDate = Day(date)
	return b
}

// WithDescription sets the free text.
func (b *TransactionBuilder) WithDescription(description string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Description = strings.TrimSpace(description)
	return b
}

// WithSourceRow records the origin ordinal for diagnostics.
func (b *TransactionBuilder) WithSourceRow(row int) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.SourceRow = row
	return b
}

// Build validates and returns the transaction.
func (b *TransactionBuilder) Build() (Transaction, error) {
	if b.err != nil {
		return Transaction{}, fmt.Errorf("builder error: %w", b.err)
	}
	if b.tx.AccountID == "" {
		return Transaction{}, errors.New("account id is required")
	}
	if !b.tx.Amount.Equal(b.tx.Amount.Round(2)) {
		return Transaction{}, fmt.Errorf("amount %s has more than two fractional digits", b.tx.Amount.String())
	}
	return b.tx, nil
}
