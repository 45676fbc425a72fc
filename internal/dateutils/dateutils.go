// Package dateutils provides the date parsing and quarter arithmetic used by the
// loaders and the aggregator.
package dateutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutGerman    = "02.01.2006"
	DateLayoutGermanYY  = "02.01.06"
	DateLayoutGermanDay = "2.1.2006"
	DateLayoutSlash     = "02/01/2006"
	DateLayoutFull      = "2006-01-02 15:04:05"
)

// DefaultLayouts is the ordered list tried when no layouts are configured.
var DefaultLayouts = []string{
	DateLayoutGerman,
	DateLayoutISO,
	DateLayoutGermanYY,
	DateLayoutGermanDay,
	DateLayoutSlash,
}

// ErrInvalidDate is returned when no layout matches a non-empty value.
var ErrInvalidDate = errors.New("invalid date")

var whitespace = regexp.MustCompile(`\s+`)

// Parser parses dates against an ordered list of layouts.
type Parser struct {
	layouts []string
}

// NewParser returns a parser trying layouts in order; an empty list selects
// DefaultLayouts. Timestamps written as "2006-01-02 15:04:05" or RFC 3339 are
// always accepted after the configured layouts.
func NewParser(layouts []string) *Parser {
	cleaned := make([]string, 0, len(layouts)+2)
	for _, l := range layouts {
		if l = strings.TrimSpace(l); l != "" {
			cleaned = append(cleaned, l)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultLayouts...)
	}
	cleaned = append(cleaned, DateLayoutFull, time.RFC3339)
	return &Parser{layouts: cleaned}
}

// Layouts returns a copy of the layouts tried by p.
func (p *Parser) Layouts() []string {
	return append([]string(nil), p.layouts...)
}

// Parse returns the calendar day of dateStr at midnight UTC. An empty value
// yields the zero time and no error, meaning the date is absent.
func (p *Parser) Parse(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, nil
	}
	for _, layout := range p.layouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, dateStr)
}

// ParseDateString parses dateStr with DefaultLayouts.
func ParseDateString(dateStr string) (time.Time, error) {
	return NewParser(nil).Parse(dateStr)
}

// FormatDate formats a time.Time value according to the specified layout
// If no layout is provided, DateLayoutISO is used
func FormatDate(date time.Time, layout string) string {
	if date.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DateLayoutISO
	}
	return date.Format(layout)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return FormatDate(date, DateLayoutISO)
}

// ToGermanFormat formats a time.Time as DD.MM.YYYY
func ToGermanFormat(date time.Time) string {
	return FormatDate(date, DateLayoutGerman)
}

// CleanDateString trims the value and collapses inner whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ValidQuarter reports whether q is in 1..4.
func ValidQuarter(q int) bool {
	return q >= 1 && q <= 4
}

// QuarterOf returns the calendar quarter (1..4) of date.
func QuarterOf(date time.Time) int {
	return (int(date.Month())-1)/3 + 1
}

// QuarterFirstMonth returns the first month of quarter q.
func QuarterFirstMonth(q int) time.Month {
	return time.Month((q-1)*3 + 1)
}

// QuarterLastMonth returns the last month of quarter q.
func QuarterLastMonth(q int) time.Month {
	return time.Month(q * 3)
}

// StartOfQuarter returns the first day of quarter q in year.
func StartOfQuarter(year, q int) time.Time {
	return time.Date(year, QuarterFirstMonth(q), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfQuarter returns the last day of quarter q in year.
func EndOfQuarter(year, q int) time.Time {
	return time.Date(year, QuarterLastMonth(q)+1, 0, 0, 0, 0, 0, time.UTC)
}

// StartOfYear returns January 1 of year.
func StartOfYear(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// CompareDates compares two dates by calendar day and returns -1, 0 or 1.
func CompareDates(date1, date2 time.Time) int {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
