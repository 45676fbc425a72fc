package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Policy selects the temporal semantics of a quarter.
type Policy string

const (
	// PolicyQuarterly restricts the window to the calendar quarter.
	PolicyQuarterly Policy = "quarterly"
	// PolicyCumulative extends the window from January 1 to the end of the quarter.
	PolicyCumulative Policy = "cumulative"
)

// ParsePolicy parses a policy name; "ytd" is accepted for cumulative.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PolicyQuarterly), "q":
		return PolicyQuarterly, nil
	case string(PolicyCumulative), "ytd", "cum":
		return PolicyCumulative, nil
	default:
		return "", fmt.Errorf("unknown policy: %s", s)
	}
}

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	return p == PolicyQuarterly || p == PolicyCumulative
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the range as "YYYY-MM-DD_YYYY-MM-DD".
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dr.Start.Format(DateLayoutISO), dr.End.Format(DateLayoutISO))
}

// Contains reports whether the calendar day of t lies inside the range.
func (dr DateRange) Contains(t time.Time) bool {
	day := Day(t)
	return !day.Before(dr.Start) && !day.After(dr.End)
}

// PeriodSummary holds the category and super-group totals of one aggregation.
// It is built fresh for every request and never persisted.
type PeriodSummary struct {
	Quarter int    `json:"quarter"`
	Policy  Policy `json:"policy"`
	// Year is zero when the window applies to every year present.
	Year   int       `json:"year,omitempty"`
	Window DateRange `json:"-"`

	CategoryTotals   map[string]decimal.Decimal `json:"category_totals"`
	CategoryCounts   map[string]int             `json:"category_counts"`
	CategoryGroups   map[string]string          `json:"category_groups"`
	SuperGroupTotals map[string]decimal.Decimal `json:"super_group_totals"`
	Total            decimal.Decimal            `json:"total"`

	Included    int `json:"included"`
	Undated     int `json:"undated"`
	OutOfWindow int `json:"out_of_window"`
}

// NewPeriodSummary returns an empty summary with initialised maps.
func NewPeriodSummary(quarter int, policy Policy, year int) *PeriodSummary {
	return &PeriodSummary{
		Quarter:          quarter,
		Policy:           policy,
		Year:             year,
		CategoryTotals:   make(map[string]decimal.Decimal),
		CategoryCounts:   make(map[string]int),
		CategoryGroups:   make(map[string]string),
		SuperGroupTotals: make(map[string]decimal.Decimal),
		Total:            decimal.Zero,
	}
}

// CategoryTotal returns the total of a category, zero when absent.
func (s *PeriodSummary) CategoryTotal(category string) decimal.Decimal {
	if v, ok := s.CategoryTotals[category]; ok {
		return v
	}
	return decimal.Zero
}

// SuperGroupTotal returns the total of a super-group, zero when absent.
func (s *PeriodSummary) SuperGroupTotal(group string) decimal.Decimal {
	if v, ok := s.SuperGroupTotals[group]; ok {
		return v
	}
	return decimal.Zero
}

// Categories returns the category labels sorted for deterministic rendering.
func (s *PeriodSummary) Categories() []string {
	return sortedKeys(s.CategoryTotals)
}

// SuperGroups returns the super-group labels sorted for deterministic rendering.
func (s *PeriodSummary) SuperGroups() []string {
	return sortedKeys(s.SuperGroupTotals)
}

// CategoriesOf returns the sorted categories that contributed to group.
func (s *PeriodSummary) CategoriesOf(group string) []string {
	var out []string
	for category, g := range s.CategoryGroups {
		if g == group {
			out = append(out, category)
		}
	}
	sort.Strings(out)
	return out
}

// Label names the period, e.g. "Q2 2024 (cumulative)".
func (s *PeriodSummary) Label() string {
	if s.Year == 0 {
		return fmt.Sprintf("Q%d (%s)", s.Quarter, s.Policy)
	}
	return fmt.Sprintf("Q%d %d (%s)", s.Quarter, s.Year, s.Policy)
}

// Present formats an amount for display, rounded to cents.
func Present(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
