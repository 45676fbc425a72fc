// Package xlsxparser reads bookkeeping workbooks. Each sheet is treated as an
// independent table with the same column contract as delimited text.
package xlsxparser

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fjacquet/bwa-report/internal/common"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Name labels this parser in diagnostics.
const Name = "xlsx"

var machineNumber = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// Options configures the parser.
type Options struct {
	common.Options
	// Sheets restricts parsing to the named sheets, in that order. Empty means
	// every sheet in workbook order.
	Sheets []string
}

// Parser reads spreadsheet workbooks.
type Parser struct {
	normalizer *common.Normalizer
	sheets     []string
	logger     logging.Logger
}

// New creates a parser.
func New(opts Options, logger logging.Logger) *Parser {
	logger = logging.OrDefault(logger)
	return &Parser{
		normalizer: common.NewNormalizer(Name, opts.Options, logger),
		sheets:     opts.Sheets,
		logger:     logger,
	}
}

// Parse converts every usable sheet and concatenates the results in sheet
// order. Sheets without the required columns are skipped and listed in the
// diagnostics.
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]models.Transaction, models.Diagnostics, error) {
	diag := models.Diagnostics{Kind: models.Spreadsheet}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, diag, &parsererror.InvalidFormatError{
			ExpectedFormat: "XLSX workbook",
			Msg:            err.Error(),
		}
	}
	defer func() {
		if err := f.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close workbook")
		}
	}()

	sheets := f.GetSheetList()
	if len(p.sheets) > 0 {
		sheets = p.selectSheets(sheets, &diag)
	}

	var transactions []models.Transaction
	tables, headers := 0, 0
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, diag, err
		}
		txs, state, err := p.parseSheet(ctx, f, sheet, &diag)
		if err != nil {
			return nil, diag, err
		}
		switch state {
		case sheetTable:
			tables++
			headers++
		case sheetUnrecognised:
			headers++
		}
		transactions = append(transactions, txs...)
	}
	diag.Loaded = len(transactions)

	// Header-only sheets are a valid empty workbook; sheets that never
	// resolve the column contract are not.
	if tables == 0 {
		if headers == 0 {
			return nil, diag, &parsererror.EmptyResultError{}
		}
		return nil, diag, &parsererror.InvalidFormatError{
			ExpectedFormat: "sheet with account, amount, date and description columns",
			Msg:            "no sheet has the required columns: " + strings.Join(diag.SkippedSheets, "; "),
		}
	}

	if err := common.CheckUsable("", diag); err != nil {
		return nil, diag, err
	}

	p.logger.Info("Parsed workbook",
		logging.Field{Key: logging.FieldCount, Value: diag.Loaded},
		logging.Field{Key: logging.FieldSkipped, Value: diag.Skipped},
		logging.Field{Key: "sheets", Value: len(sheets) - len(diag.SkippedSheets)})
	return transactions, diag, nil
}

func (p *Parser) selectSheets(available []string, diag *models.Diagnostics) []string {
	present := make(map[string]bool, len(available))
	for _, s := range available {
		present[s] = true
	}
	var selected []string
	for _, s := range p.sheets {
		if present[s] {
			selected = append(selected, s)
			continue
		}
		diag.SkippedSheets = append(diag.SkippedSheets, s+": not in workbook")
		p.logger.Warn("Configured sheet not found", logging.Field{Key: logging.FieldSheet, Value: s})
	}
	return selected
}

type sheetState int

const (
	sheetEmpty sheetState = iota
	sheetUnrecognised
	sheetTable
)

func (p *Parser) parseSheet(ctx context.Context, f *excelize.File, sheet string, diag *models.Diagnostics) ([]models.Transaction, sheetState, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, sheetEmpty, fmt.Errorf("error reading sheet %s: %w", sheet, err)
	}

	headerIdx := -1
	for i, row := range rows {
		if !common.IsBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		diag.SkippedSheets = append(diag.SkippedSheets, sheet+": empty")
		return nil, sheetEmpty, nil
	}

	columns, missing := p.normalizer.ResolveHeader(rows[headerIdx])
	if len(missing) > 0 {
		reason := common.MissingColumnsError("", rows[headerIdx], missing).Error()
		diag.SkippedSheets = append(diag.SkippedSheets, sheet+": "+reason)
		p.logger.Info("Skipping sheet without required columns",
			logging.Field{Key: logging.FieldSheet, Value: sheet},
			logging.Field{Key: logging.FieldReason, Value: reason})
		return nil, sheetUnrecognised, nil
	}

	var transactions []models.Transaction
	for i := headerIdx + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, sheetTable, err
		}
		cells := rows[i]
		if common.IsBlank(cells) {
			continue
		}
		diag.RowsRead++

		rowNumber := i + 1
		row := common.Row{Sheet: sheet, Index: rowNumber, Cells: cells}
		row.Amount = p.numericAmount(f, sheet, columns.Amount, rowNumber, cells)
		row.Date = p.numericDate(f, sheet, columns.Date, rowNumber, cells)

		if tx, ok := p.normalizer.ConvertRow(columns, row, diag); ok {
			transactions = append(transactions, tx)
		}
	}

	p.logger.Debug("Parsed sheet",
		logging.Field{Key: logging.FieldSheet, Value: sheet},
		logging.Field{Key: logging.FieldCount, Value: len(transactions)})
	return transactions, sheetTable, nil
}

// numericAmount returns the value of a numeric amount cell rounded to cents.
// Text cells return nil and go through the configured amount notation.
func (p *Parser) numericAmount(f *excelize.File, sheet string, col, rowNumber int, cells []string) *decimal.Decimal {
	raw, ok := numericCell(f, sheet, col, rowNumber, cells)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	d = d.Round(2)
	return &d
}

// numericDate converts a date serial number to its calendar day.
func (p *Parser) numericDate(f *excelize.File, sheet string, col, rowNumber int, cells []string) *time.Time {
	raw, ok := numericCell(f, sheet, col, rowNumber, cells)
	if !ok {
		return nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	day := models.Day(t)
	return &day
}

func numericCell(f *excelize.File, sheet string, col, rowNumber int, cells []string) (string, bool) {
	if col < 0 || col >= len(cells) {
		return "", false
	}
	raw := strings.TrimSpace(cells[col])
	if raw == "" || !machineNumber.MatchString(raw) {
		return "", false
	}
	axis, err := excelize.CoordinatesToCellName(col+1, rowNumber)
	if err != nil {
		return "", false
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return "", false
	}
	return raw, typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber
}
