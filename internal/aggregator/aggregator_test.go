package aggregator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"
	"time"

	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(account, amount string, when time.Time) models.Transaction {
	return models.Transaction{AccountID: account, Amount: decimal.RequireFromString(amount), BookingDate: when}
}

func yearPtr(y int) *int { return &y }

func donationTable(t *testing.T) *mapping.Table {
	t.Helper()
	table := mapping.NewTable()
	require.NoError(t, table.SetAccountMapping("4000", "Spenden"))
	require.NoError(t, table.SetAccountMapping("4100", "Beiträge"))
	require.NoError(t, table.SetAccountMapping("6000", "Raumkosten"))
	require.NoError(t, table.SetSuperGroupMapping("Spenden", "Erträge"))
	require.NoError(t, table.SetSuperGroupMapping("Beiträge", "Erträge"))
	require.NoError(t, table.SetSuperGroupMapping("Raumkosten", "Aufwand"))
	return table
}

func TestWindow(t *testing.T) {
	tests := []struct {
		quarter int
		policy  models.Policy
		start   time.Time
		end     time.Time
	}{
		{1, models.PolicyQuarterly, date(2024, 1, 1), date(2024, 3, 31)},
		{2, models.PolicyQuarterly, date(2024, 4, 1), date(2024, 6, 30)},
		{3, models.PolicyQuarterly, date(2024, 7, 1), date(2024, 9, 30)},
		{4, models.PolicyQuarterly, date(2024, 10, 1), date(2024, 12, 31)},
		{1, models.PolicyCumulative, date(2024, 1, 1), date(2024, 3, 31)},
		{2, models.PolicyCumulative, date(2024, 1, 1), date(2024, 6, 30)},
		{4, models.PolicyCumulative, date(2024, 1, 1), date(2024, 12, 31)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("Q%d_%s", tt.quarter, tt.policy), func(t *testing.T) {
			w, err := Window(tt.quarter, tt.policy, 2024)
			require.NoError(t, err)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
		})
	}
}

func TestWindow_InvalidArguments(t *testing.T) {
	for _, q := range []int{0, 5, -1} {
		_, err := Window(q, models.PolicyQuarterly, 2024)
		assert.ErrorIs(t, err, parsererror.ErrInvalidArgument, "quarter %d", q)
	}
	_, err := Window(1, models.Policy("monthly"), 2024)
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)
}

func TestAggregate_QuarterlyVersusCumulative(t *testing.T) {
	table := mapping.NewTable()
	require.NoError(t, table.SetAccountMapping("4000", "Spenden"))
	txs := []models.Transaction{
		tx("4000", "100", date(2024, 2, 1)),
		tx("4000", "200", date(2024, 4, 15)),
		tx("4000", "300", date(2024, 7, 1)),
	}
	agg := New(logging.NewMockLogger())

	quarterly, err := agg.Aggregate(txs, table, Request{Quarter: 2, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, "200.00", models.Present(quarterly.CategoryTotal("Spenden")))
	assert.Equal(t, 1, quarterly.Included)
	assert.Equal(t, 2, quarterly.OutOfWindow)

	cumulative, err := agg.Aggregate(txs, table, Request{Quarter: 2, Policy: models.PolicyCumulative, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, "300.00", models.Present(cumulative.CategoryTotal("Spenden")))
	assert.Equal(t, 2, cumulative.Included)
}

func TestAggregate_UnmappedBucket(t *testing.T) {
	table := donationTable(t)
	txs := []models.Transaction{
		tx("4000", "50", date(2024, 5, 1)),
		tx("9999", "7.5", date(2024, 5, 2)),
		tx("8888", "2.5", date(2024, 5, 3)),
	}

	s, err := Aggregate(txs, table, Request{Quarter: 2, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, "10.00", models.Present(s.CategoryTotal(models.Unmapped)))
	assert.Equal(t, 2, s.CategoryCounts[models.Unmapped])
	assert.Equal(t, models.Unmapped, s.CategoryGroups[models.Unmapped])
	assert.Equal(t, "10.00", models.Present(s.SuperGroupTotal(models.Unmapped)))
	assert.Equal(t, "50.00", models.Present(s.SuperGroupTotal("Erträge")))
	assert.Equal(t, "60.00", models.Present(s.Total))
}

func TestAggregate_CategoryWithoutSuperGroup(t *testing.T) {
	table := mapping.NewTable()
	require.NoError(t, table.SetAccountMapping("4000", "Spenden"))

	s, err := Aggregate([]models.Transaction{tx("4000", "5", date(2024, 1, 5))}, table,
		Request{Quarter: 1, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, "5.00", models.Present(s.CategoryTotal("Spenden")))
	assert.Equal(t, "5.00", models.Present(s.SuperGroupTotal(models.Unmapped)))
}

func TestAggregate_UndatedExcluded(t *testing.T) {
	table := donationTable(t)
	logger := logging.NewMockLogger()
	txs := []models.Transaction{
		tx("4000", "10", date(2024, 1, 10)),
		tx("4000", "99", time.Time{}),
	}

	s, err := New(logger).Aggregate(txs, table, Request{Quarter: 4, Policy: models.PolicyCumulative, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, "10.00", models.Present(s.Total))
	assert.Equal(t, 1, s.Undated)
	assert.Equal(t, 1, s.Included)
	assert.NotEmpty(t, logger.EntriesByLevel("WARN"))
}

func TestAggregate_WithoutYearMatchesEveryYear(t *testing.T) {
	table := donationTable(t)
	txs := []models.Transaction{
		tx("4000", "1", date(2023, 5, 1)),
		tx("4000", "2", date(2024, 5, 1)),
		tx("4000", "4", date(2024, 2, 29)),
		tx("4000", "8", date(2024, 8, 1)),
	}

	q2, err := Aggregate(txs, table, Request{Quarter: 2, Policy: models.PolicyQuarterly})
	require.NoError(t, err)
	assert.Equal(t, "3.00", models.Present(q2.Total))
	assert.Equal(t, 0, q2.Year)

	q1, err := Aggregate(txs, table, Request{Quarter: 1, Policy: models.PolicyQuarterly})
	require.NoError(t, err)
	assert.Equal(t, "4.00", models.Present(q1.Total), "February 29 belongs to Q1")

	withYear, err := Aggregate(txs, table, Request{Quarter: 2, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, "2.00", models.Present(withYear.Total))
}

func TestAggregate_EmptyWindowListsAllCategories(t *testing.T) {
	table := donationTable(t)

	s, err := Aggregate(nil, table, Request{Quarter: 3, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Beiträge", "Raumkosten", "Spenden"}, s.Categories())
	assert.Equal(t, []string{"Aufwand", "Erträge"}, s.SuperGroups())
	for _, c := range s.Categories() {
		assert.True(t, s.CategoryTotal(c).IsZero())
	}
	assert.True(t, s.Total.IsZero())
	assert.Equal(t, "Q3 2024 (quarterly)", s.Label())
}

func TestAggregate_NilTableClassifiesUnmapped(t *testing.T) {
	s, err := Aggregate([]models.Transaction{tx("1", "1", date(2024, 1, 1))}, nil,
		Request{Quarter: 1, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.Equal(t, []string{models.Unmapped}, s.Categories())
}

func TestAggregate_DecimalPrecision(t *testing.T) {
	table := donationTable(t)
	txs := make([]models.Transaction, 0, 1000)
	for i := 0; i < 1000; i++ {
		txs = append(txs, tx("4000", "0.01", date(2024, 1, 1)))
	}
	txs = append(txs, tx("6000", "-0.10", date(2024, 1, 2)), tx("6000", "0.20", date(2024, 1, 3)))

	s, err := Aggregate(txs, table, Request{Quarter: 1, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.True(t, s.CategoryTotal("Spenden").Equal(decimal.RequireFromString("10")))
	assert.True(t, s.CategoryTotal("Raumkosten").Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "10.10", models.Present(s.Total))
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	table := donationTable(t)
	before := table.Clone()
	txs := []models.Transaction{tx("4000", "1", date(2024, 1, 1))}
	snapshot := append([]models.Transaction(nil), txs...)

	_, err := Aggregate(txs, table, Request{Quarter: 1, Policy: models.PolicyQuarterly, Year: yearPtr(2024)})
	require.NoError(t, err)
	assert.True(t, table.Equal(before))
	assert.True(t, models.EqualTransactions(snapshot, txs))
}

func TestAggregateYear(t *testing.T) {
	table := donationTable(t)
	txs := []models.Transaction{
		tx("4000", "1", date(2024, 2, 1)),
		tx("4000", "2", date(2024, 5, 1)),
		tx("4000", "4", date(2024, 8, 1)),
		tx("4000", "8", date(2024, 11, 1)),
	}
	agg := New(logging.NewMockLogger())

	quarterly, err := agg.AggregateYear(txs, table, models.PolicyQuarterly, yearPtr(2024))
	require.NoError(t, err)
	require.Len(t, quarterly, 4)
	for i, want := range []string{"1.00", "2.00", "4.00", "8.00"} {
		assert.Equal(t, i+1, quarterly[i].Quarter)
		assert.Equal(t, want, models.Present(quarterly[i].Total))
	}

	cumulative, err := agg.AggregateYear(txs, table, models.PolicyCumulative, yearPtr(2024))
	require.NoError(t, err)
	for i, want := range []string{"1.00", "3.00", "7.00", "15.00"} {
		assert.Equal(t, want, models.Present(cumulative[i].Total))
	}

	_, err = agg.AggregateYear(txs, table, models.Policy("weekly"), nil)
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)
}

func randomIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// The cumulative Q4 total equals the sum of the four quarterly totals.
func TestProperty_QuarterlySumsToCumulative(t *testing.T) {
	table := donationTable(t)
	accounts := []string{"4000", "4100", "6000", "7777"}
	agg := New(logging.NewMockLogger())

	for i := 0; i < 50; i++ {
		t.Run(fmt.Sprintf("iteration_%d", i), func(t *testing.T) {
			var txs []models.Transaction
			for n := randomIntn(40); n >= 0; n-- {
				amount := decimal.New(int64(randomIntn(200000)-100000), -2)
				when := date(2024, 1, 1).AddDate(0, 0, randomIntn(366))
				txs = append(txs, models.Transaction{AccountID: accounts[randomIntn(len(accounts))], Amount: amount, BookingDate: when})
			}

			quarterly, err := agg.AggregateYear(txs, table, models.PolicyQuarterly, yearPtr(2024))
			require.NoError(t, err)
			cumulative, err := agg.Aggregate(txs, table, Request{Quarter: 4, Policy: models.PolicyCumulative, Year: yearPtr(2024)})
			require.NoError(t, err)

			sum := decimal.Zero
			for _, s := range quarterly {
				sum = sum.Add(s.Total)
			}
			assert.True(t, sum.Equal(cumulative.Total), "sum %s cumulative %s", sum, cumulative.Total)
			for _, c := range cumulative.Categories() {
				catSum := decimal.Zero
				for _, s := range quarterly {
					catSum = catSum.Add(s.CategoryTotal(c))
				}
				assert.True(t, catSum.Equal(cumulative.CategoryTotal(c)), c)
			}
		})
	}
}

func TestSummaries(t *testing.T) {
	table := donationTable(t)
	txs := []models.Transaction{tx("4000", "1", date(2024, 2, 1))}
	agg := New(logging.NewMockLogger())

	all, err := agg.Summaries(txs, table, 0, models.PolicyCumulative, yearPtr(2024))
	require.NoError(t, err)
	assert.Len(t, all, 4)

	one, err := agg.Summaries(txs, table, 1, models.PolicyQuarterly, yearPtr(2024))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "1.00", models.Present(one[0].Total))

	_, err = agg.Summaries(txs, table, 7, models.PolicyQuarterly, nil)
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)
}
