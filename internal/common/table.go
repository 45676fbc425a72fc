// Package common provides the tabular input contract shared by the delimited
// text and spreadsheet parsers: header recognition, cell coercion and the
// skip-or-keep policy for individual rows.
package common

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/bwa-report/internal/currencyutils"
	"fjacquet/bwa-report/internal/dateutils"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Column is one of the canonical input columns.
type Column string

const (
	ColumnAccount     Column = "account"
	ColumnAmount      Column = "amount"
	ColumnDate        Column = "date"
	ColumnDescription Column = "description"
)

// RequiredColumns lists every column a table header must provide.
var RequiredColumns = []Column{ColumnAccount, ColumnAmount, ColumnDate, ColumnDescription}

// DefaultAliases maps each column to the header names recognised for it.
// Matching is case-insensitive and ignores surrounding whitespace.
var DefaultAliases = map[Column][]string{
	ColumnAccount:     {"konto", "kontonummer", "konto-nr", "kontonr", "sachkonto", "account", "account id", "account_id"},
	ColumnAmount:      {"betrag", "betrag eur", "betrag (eur)", "umsatz", "amount"},
	ColumnDate:        {"datum", "buchungsdatum", "belegdatum", "date", "booking date", "booking_date"},
	ColumnDescription: {"buchungstext", "beschreibung", "verwendungszweck", "bezeichnung", "description", "text"},
}

// ParseColumn accepts a column name as used in configuration.
func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RequiredColumns {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown column: %s", s)
}

// Options carries the coercion rules of a tabular source.
type Options struct {
	// DecimalSeparator is ',' or '.'; zero selects ','.
	DecimalSeparator rune
	// DateLayouts are tried in order; empty selects dateutils.DefaultLayouts.
	DateLayouts []string
	// ExtraAliases adds header names per column on top of DefaultAliases.
	ExtraAliases map[Column][]string
}

// Header records where each canonical column sits in a table.
type Header struct {
	Account     int
	Amount      int
	Date        int
	Description []int
}

// Row is one data row. Amount and Date, when set, hold typed cell values and
// take precedence over the text of the corresponding cells.
type Row struct {
	Sheet  string
	Index  int
	Cells  []string
	Amount *decimal.Decimal
	Date   *time.Time
}

// Normalizer turns table rows into transactions.
type Normalizer struct {
	parser     string
	aliases    map[string]Column
	decimalSep rune
	dates      *dateutils.Parser
	logger     logging.Logger
}

// NewNormalizer creates a normalizer; parserName labels diagnostics and logs.
func NewNormalizer(parserName string, opts Options, logger logging.Logger) *Normalizer {
	aliases := make(map[string]Column)
	add := func(col Column, names []string) {
		for _, name := range names {
			if key := normalizeHeader(name); key != "" {
				aliases[key] = col
			}
		}
	}
	for col, names := range DefaultAliases {
		add(col, names)
	}
	for col, names := range opts.ExtraAliases {
		add(col, names)
	}

	sep := opts.DecimalSeparator
	if sep == 0 {
		sep = ','
	}
	return &Normalizer{
		parser:     parserName,
		aliases:    aliases,
		decimalSep: sep,
		dates:      dateutils.NewParser(opts.DateLayouts),
		logger:     logging.OrDefault(logger),
	}
}

// DecimalSeparator returns the configured separator.
func (n *Normalizer) DecimalSeparator() rune {
	return n.decimalSep
}

// ResolveHeader locates the canonical columns in a header row. The first
// matching cell wins for account, amount and date; every description cell is
// kept in order. It returns the missing columns, if any.
func (n *Normalizer) ResolveHeader(cells []string) (Header, []Column) {
	h := Header{Account: -1, Amount: -1, Date: -1}
	for i, cell := range cells {
		col, ok := n.aliases[normalizeHeader(cell)]
		if !ok {
			continue
		}
		switch col {
		case ColumnAccount:
			if h.Account < 0 {
				h.Account = i
			}
		case ColumnAmount:
			if h.Amount < 0 {
				h.Amount = i
			}
		case ColumnDate:
			if h.Date < 0 {
				h.Date = i
			}
		case ColumnDescription:
			h.Description = append(h.Description, i)
		}
	}

	var missing []Column
	if h.Account < 0 {
		missing = append(missing, ColumnAccount)
	}
	if h.Amount < 0 {
		missing = append(missing, ColumnAmount)
	}
	if h.Date < 0 {
		missing = append(missing, ColumnDate)
	}
	if len(h.Description) == 0 {
		missing = append(missing, ColumnDescription)
	}
	return h, missing
}

// MissingColumnsError builds the UnsupportedFormat error for a header lacking columns.
func MissingColumnsError(path string, header []string, missing []Column) error {
	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = string(c)
	}
	return &parsererror.InvalidFormatError{
		FilePath:             path,
		ExpectedFormat:       "header with account, amount, date and description columns",
		ActualContentSnippet: snippet(strings.Join(header, " | ")),
		Msg:                  "missing required columns: " + strings.Join(names, ", "),
	}
}

// IsBlank reports whether every cell is empty or whitespace.
func IsBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ConvertRow builds the transaction of row. It returns false when the row is
// skipped; the reason is recorded in diag. Rows without a usable date are kept
// undated and counted in diag.Undated.
func (n *Normalizer) ConvertRow(h Header, row Row, diag *models.Diagnostics) (models.Transaction, bool) {
	account := cell(row.Cells, h.Account)
	if account == "" {
		n.skip(diag, row, string(ColumnAccount), "", "missing account id")
		return models.Transaction{}, false
	}

	var amount decimal.Decimal
	if row.Amount != nil {
		amount = *row.Amount
	} else {
		raw := cell(row.Cells, h.Amount)
		if raw == "" {
			n.skip(diag, row, string(ColumnAmount), "", "missing amount")
			return models.Transaction{}, false
		}
		parsed, err := currencyutils.ParseAmount(raw, n.decimalSep)
		if err != nil {
			perr := &parsererror.ParseError{Parser: n.parser, Row: row.Index, Field: string(ColumnAmount), Value: raw, Err: err}
			n.skip(diag, row, string(ColumnAmount), raw, perr.Error())
			return models.Transaction{}, false
		}
		amount = parsed
	}

	var date time.Time
	if row.Date != nil {
		date = *row.Date
	} else if raw := cell(row.Cells, h.Date); raw != "" {
		parsed, err := n.dates.Parse(raw)
		if err != nil {
			diag.Degrade(models.RowIssue{
				Sheet: row.Sheet, Row: row.Index, Field: string(ColumnDate), Value: raw,
				Reason: "unparseable date, row kept without date",
			})
			n.logger.Debug("Keeping row without date",
				logging.Field{Key: logging.FieldRow, Value: row.Index},
				logging.Field{Key: "value", Value: raw})
		} else {
			date = parsed
		}
	}

	parts := make([]string, 0, len(h.Description))
	for _, idx := range h.Description {
		if text := cell(row.Cells, idx); text != "" {
			parts = append(parts, text)
		}
	}

	tx, err := models.NewTransactionBuilder().
		WithAccount(account).
		WithAmount(amount).
		WithBookingDate(date).
		WithDescription(strings.Join(parts, " ")).
		WithSourceRow(row.Index).
		Build()
	if err != nil {
		n.skip(diag, row, string(ColumnAmount), amount.String(), err.Error())
		return models.Transaction{}, false
	}

	if !tx.HasDate() {
		diag.Undated++
	}
	return tx, true
}

// CheckUsable returns EmptyResult when data rows existed but none produced a
// transaction. A table with a header and no data rows is a valid empty result.
func CheckUsable(path string, diag models.Diagnostics) error {
	if diag.RowsRead > 0 && diag.Loaded == 0 {
		return &parsererror.EmptyResultError{FilePath: path, Rows: diag.RowsRead, Skipped: diag.Skipped}
	}
	return nil
}

func (n *Normalizer) skip(diag *models.Diagnostics, row Row, field, value, reason string) {
	diag.Skip(models.RowIssue{Sheet: row.Sheet, Row: row.Index, Field: field, Value: value, Reason: reason})
	n.logger.Warn("Skipping row",
		logging.Field{Key: logging.FieldRow, Value: row.Index},
		logging.Field{Key: logging.FieldSheet, Value: row.Sheet},
		logging.Field{Key: logging.FieldColumn, Value: field},
		logging.Field{Key: logging.FieldReason, Value: reason})
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func snippet(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
