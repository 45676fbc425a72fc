package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionBuilder_Build(t *testing.T) {
	date := time.Date(2024, 4, 15, 13, 45, 0, 0, time.Local)

	tx, err := NewTransactionBuilder().
		WithAccount(" 4000 ").
		WithAmount(decimal.RequireFromString("-12.50")).
		WithBookingDate(date).
		WithDescription("  Spende Müller ").
		WithSourceRow(3).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "4000", tx.AccountID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-12.5")))
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), tx.BookingDate)
	assert.Equal(t, "Spende Müller", tx.Description)
	assert.Equal(t, 3, tx.SourceRow)
	assert.True(t, tx.HasDate())
}

func TestTransactionBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *TransactionBuilder
		wantErr string
	}{
		{
			name:    "missing account",
			builder: NewTransactionBuilder().WithAmount(decimal.NewFromInt(1)),
			wantErr: "account id is required",
		},
		{
			name:    "sub-cent amount",
			builder: NewTransactionBuilder().WithAccount("4000").WithAmount(decimal.RequireFromString("1.005")),
			wantErr: "more than two fractional digits",
		},
		{
			name:    "unparseable amount string",
			builder: NewTransactionBuilder().WithAccount("4000").WithAmountString("12,50"),
			wantErr: "invalid amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTransactionBuilder_TrailingZerosAccepted(t *testing.T) {
	tx, err := NewTransactionBuilder().WithAccount("1200").WithAmountString("7.5000").Build()
	require.NoError(t, err)
	assert.Equal(t, "7.50", Present(tx.Amount))
	assert.False(t, tx.HasDate())
}

func TestTransaction_Equal(t *testing.T) {
	base := Transaction{
		AccountID:   "4000",
		Amount:      decimal.RequireFromString("100.00"),
		BookingDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Description: "Beitrag",
		SourceRow:   2,
	}

	same := base
	same.Amount = decimal.RequireFromString("100")
	same.BookingDate = time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)
	assert.True(t, base.Equal(same))

	otherAmount := base
	otherAmount.Amount = decimal.RequireFromString("100.01")
	assert.False(t, base.Equal(otherAmount))

	undated := base
	undated.BookingDate = time.Time{}
	assert.False(t, base.Equal(undated))
	assert.True(t, undated.Equal(undated))

	assert.True(t, EqualTransactions([]Transaction{base}, []Transaction{same}))
	assert.False(t, EqualTransactions([]Transaction{base}, nil))
}
