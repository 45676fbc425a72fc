// Package csvparser reads delimited bookkeeping exports (semicolon or comma
// separated, UTF-8 or a legacy single-byte encoding) into transactions.
package csvparser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fjacquet/bwa-report/internal/charset"
	"fjacquet/bwa-report/internal/common"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"
)

// Name labels this parser in diagnostics.
const Name = "csv"

// Candidates are the delimiters considered by DetectDelimiter, in tie-break order.
var Candidates = []rune{';', ','}

// Options configures the parser.
type Options struct {
	common.Options
	// Encodings is the ordered list of candidate encodings; empty selects
	// charset.DefaultCandidates.
	Encodings []string
}

// Parser reads delimited text.
type Parser struct {
	normalizer *common.Normalizer
	encodings  []string
	logger     logging.Logger
}

// New creates a parser.
func New(opts Options, logger logging.Logger) *Parser {
	logger = logging.OrDefault(logger)
	return &Parser{
		normalizer: common.NewNormalizer(Name, opts.Options, logger),
		encodings:  opts.Encodings,
		logger:     logger,
	}
}

// Parse reads the whole input, detects its encoding and delimiter, and converts
// every data row. Rows that cannot be used are skipped and reported in the
// diagnostics. A header without data rows yields no transactions and no error.
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]models.Transaction, models.Diagnostics, error) {
	diag := models.Diagnostics{Kind: models.DelimitedText}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, diag, fmt.Errorf("error reading input: %w", err)
	}

	decoded, encoding, err := charset.Decode(raw, p.encodings)
	if err != nil {
		return nil, diag, &parsererror.InvalidFormatError{
			ExpectedFormat: "text in one of the configured encodings",
			Msg:            err.Error(),
		}
	}
	diag.Encoding = encoding
	text := string(decoded)

	headerLine := firstNonBlankLine(text)
	if headerLine == "" {
		return nil, diag, &parsererror.EmptyResultError{}
	}
	delimiter := DetectDelimiter(headerLine)
	diag.Delimiter = string(delimiter)

	p.logger.Debug("Detected input dialect",
		logging.Field{Key: logging.FieldEncoding, Value: encoding},
		logging.Field{Key: logging.FieldDelimiter, Value: string(delimiter)})

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, diag, &parsererror.InvalidFormatError{
			ExpectedFormat: "delimited text with a header row",
			Msg:            err.Error(),
		}
	}
	columns, missing := p.normalizer.ResolveHeader(header)
	if len(missing) > 0 {
		return nil, diag, common.MissingColumnsError("", header, missing)
	}

	var transactions []models.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return nil, diag, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if !errors.As(err, &csvErr) {
				return nil, diag, fmt.Errorf("error reading delimited text: %w", err)
			}
			diag.RowsRead++
			diag.Skip(models.RowIssue{Row: csvErr.Line, Reason: csvErr.Err.Error()})
			continue
		}
		if common.IsBlank(record) {
			continue
		}

		diag.RowsRead++
		line, _ := reader.FieldPos(0)
		tx, ok := p.normalizer.ConvertRow(columns, common.Row{Index: line, Cells: record}, &diag)
		if ok {
			transactions = append(transactions, tx)
		}
	}
	diag.Loaded = len(transactions)

	if err := common.CheckUsable("", diag); err != nil {
		return nil, diag, err
	}

	p.logger.Info("Parsed delimited text",
		logging.Field{Key: logging.FieldCount, Value: diag.Loaded},
		logging.Field{Key: logging.FieldSkipped, Value: diag.Skipped},
		logging.Field{Key: logging.FieldEncoding, Value: encoding})
	return transactions, diag, nil
}

// DetectDelimiter picks the candidate occurring most often outside quotes in
// the header line. Ties resolve in Candidates order, so semicolon wins.
func DetectDelimiter(headerLine string) rune {
	counts := make(map[rune]int, len(Candidates))
	inQuotes := false
	for _, r := range headerLine {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := Candidates[0]
	for _, c := range Candidates[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func firstNonBlankLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return strings.TrimRight(line, "\r")
		}
	}
	return ""
}
