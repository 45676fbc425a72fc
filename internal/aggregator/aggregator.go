// Package aggregator computes period summaries from classified transactions.
package aggregator

import (
	"fmt"
	"strconv"
	"time"

	"fjacquet/bwa-report/internal/dateutils"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/shopspring/decimal"
)

// referenceYear is a leap year so that February 29 falls inside Q1 windows
// applied without a year filter.
const referenceYear = 2000

// Request selects the period to aggregate. A nil Year applies the window to
// every year present in the data.
type Request struct {
	Quarter int
	Policy  models.Policy
	Year    *int
}

// Validate checks the quarter and policy.
func (r Request) Validate() error {
	if !dateutils.ValidQuarter(r.Quarter) {
		return &parsererror.ValidationError{Field: "quarter", Value: strconv.Itoa(r.Quarter), Reason: "must be between 1 and 4"}
	}
	if !r.Policy.Valid() {
		return &parsererror.ValidationError{Field: "policy", Value: string(r.Policy), Reason: "must be quarterly or cumulative"}
	}
	if r.Year != nil && (*r.Year < 1 || *r.Year > 9999) {
		return &parsererror.ValidationError{Field: "year", Value: strconv.Itoa(*r.Year), Reason: "out of range"}
	}
	return nil
}

func (r Request) year() int {
	if r.Year == nil {
		return 0
	}
	return *r.Year
}

// Window returns the inclusive date window of a quarter under policy.
// Quarterly spans the calendar quarter, cumulative runs from January 1 to the
// quarter's last day. A year of zero returns the window in a reference leap
// year; use Matches to test dates against it.
func Window(quarter int, policy models.Policy, year int) (models.DateRange, error) {
	if err := (Request{Quarter: quarter, Policy: policy}).Validate(); err != nil {
		return models.DateRange{}, err
	}
	if year == 0 {
		year = referenceYear
	}
	end := dateutils.EndOfQuarter(year, quarter)
	if policy == models.PolicyCumulative {
		return models.DateRange{Start: dateutils.StartOfYear(year), End: end}, nil
	}
	return models.DateRange{Start: dateutils.StartOfQuarter(year, quarter), End: end}, nil
}

// Matches reports whether date falls in window. With anyYear set only the
// month and day of date are compared.
func Matches(window models.DateRange, date time.Time, anyYear bool) bool {
	if date.IsZero() {
		return false
	}
	if anyYear {
		date = time.Date(referenceYear, date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}
	return window.Contains(date)
}

// Aggregator builds period summaries.
type Aggregator struct {
	logger logging.Logger
}

// New creates an Aggregator.
func New(logger logging.Logger) *Aggregator {
	return &Aggregator{logger: logging.OrDefault(logger)}
}

// Aggregate sums txs inside the requested window by category and super-group.
// Every category known to table is listed, with zero when nothing matched.
// Undated transactions are counted but never included. A nil table classifies
// everything as unmapped.
func (a *Aggregator) Aggregate(txs []models.Transaction, table *mapping.Table, req Request) (*models.PeriodSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = mapping.NewTable()
	}
	window, err := Window(req.Quarter, req.Policy, req.year())
	if err != nil {
		return nil, err
	}
	anyYear := req.Year == nil

	summary := models.NewPeriodSummary(req.Quarter, req.Policy, req.year())
	summary.Window = window
	for _, category := range table.Categories() {
		seed(summary, category, table.ResolveSuperGroup(category))
	}

	for _, tx := range txs {
		if !tx.HasDate() {
			summary.Undated++
			continue
		}
		if !Matches(window, tx.BookingDate, anyYear) {
			summary.OutOfWindow++
			continue
		}
		category := table.ResolveCategory(tx.AccountID)
		group := table.ResolveSuperGroup(category)
		seed(summary, category, group)

		summary.CategoryTotals[category] = summary.CategoryTotals[category].Add(tx.Amount)
		summary.CategoryCounts[category]++
		summary.SuperGroupTotals[group] = summary.SuperGroupTotals[group].Add(tx.Amount)
		summary.Total = summary.Total.Add(tx.Amount)
		summary.Included++
	}

	a.logger.Debug("Aggregated period",
		logging.Field{Key: logging.FieldQuarter, Value: req.Quarter},
		logging.Field{Key: logging.FieldPolicy, Value: string(req.Policy)},
		logging.Field{Key: logging.FieldYear, Value: req.year()},
		logging.Field{Key: logging.FieldCount, Value: summary.Included},
		logging.Field{Key: logging.FieldSkipped, Value: summary.OutOfWindow + summary.Undated})
	if summary.Undated > 0 {
		a.logger.Warn(fmt.Sprintf("%d undated transactions excluded from %s", summary.Undated, summary.Label()))
	}
	return summary, nil
}

// AggregateYear returns the summaries of all four quarters under policy.
func (a *Aggregator) AggregateYear(txs []models.Transaction, table *mapping.Table, policy models.Policy, year *int) ([]*models.PeriodSummary, error) {
	summaries := make([]*models.PeriodSummary, 0, 4)
	for q := 1; q <= 4; q++ {
		s, err := a.Aggregate(txs, table, Request{Quarter: q, Policy: policy, Year: year})
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Summaries returns the summary of quarter, or of all four quarters when
// quarter is zero.
func (a *Aggregator) Summaries(txs []models.Transaction, table *mapping.Table, quarter int, policy models.Policy, year *int) ([]*models.PeriodSummary, error) {
	if quarter == 0 {
		return a.AggregateYear(txs, table, policy, year)
	}
	s, err := a.Aggregate(txs, table, Request{Quarter: quarter, Policy: policy, Year: year})
	if err != nil {
		return nil, err
	}
	return []*models.PeriodSummary{s}, nil
}

// Aggregate is a convenience wrapper using the default logger.
func Aggregate(txs []models.Transaction, table *mapping.Table, req Request) (*models.PeriodSummary, error) {
	return New(nil).Aggregate(txs, table, req)
}

func seed(s *models.PeriodSummary, category, group string) {
	if _, ok := s.CategoryTotals[category]; !ok {
		s.CategoryTotals[category] = decimal.Zero
		s.CategoryGroups[category] = group
	}
	if _, ok := s.SuperGroupTotals[group]; !ok {
		s.SuperGroupTotals[group] = decimal.Zero
	}
}
