package exchange

import (
	"context"
	"fmt"
	"io"

	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
)

// Parser is the loader front end for exchange documents.
type Parser struct {
	logger logging.Logger
}

// NewParser creates a parser.
func NewParser(logger logging.Logger) *Parser {
	return &Parser{logger: logging.OrDefault(logger)}
}

// Parse decodes the document read from r. Unlike tabular input nothing is
// skipped: a single defect fails the whole document.
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]models.Transaction, *mapping.Table, models.Diagnostics, error) {
	diag := models.Diagnostics{Kind: models.JSONExchange, Encoding: "utf-8"}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, diag, fmt.Errorf("error reading input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, diag, err
	}

	transactions, table, err := Decode(data)
	if err != nil {
		return nil, nil, diag, err
	}

	diag.RowsRead = len(transactions)
	diag.Loaded = len(transactions)
	for _, tx := range transactions {
		if !tx.HasDate() {
			diag.Undated++
		}
	}

	p.logger.Info("Decoded exchange document",
		logging.Field{Key: logging.FieldCount, Value: len(transactions)},
		logging.Field{Key: "mappings", Value: table.Len()})
	return transactions, table, diag, nil
}
