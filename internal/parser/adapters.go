package parser

import (
	"context"
	"io"

	"fjacquet/bwa-report/internal/csvparser"
	"fjacquet/bwa-report/internal/exchange"
	"fjacquet/bwa-report/internal/xlsxparser"
)

// DelimitedAdapter implements Parser for delimited text.
type DelimitedAdapter struct {
	parser *csvparser.Parser
}

func (a *DelimitedAdapter) Parse(ctx context.Context, r io.Reader) (*LoadResult, error) {
	txs, diag, err := a.parser.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Transactions: txs, Diagnostics: diag}, nil
}

// SpreadsheetAdapter implements Parser for XLSX workbooks.
type SpreadsheetAdapter struct {
	parser *xlsxparser.Parser
}

func (a *SpreadsheetAdapter) Parse(ctx context.Context, r io.Reader) (*LoadResult, error) {
	txs, diag, err := a.parser.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Transactions: txs, Diagnostics: diag}, nil
}

// ExchangeAdapter implements Parser for JSON exchange documents.
type ExchangeAdapter struct {
	parser *exchange.Parser
}

func (a *ExchangeAdapter) Parse(ctx context.Context, r io.Reader) (*LoadResult, error) {
	txs, table, diag, err := a.parser.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Transactions: txs, Mapping: table, Diagnostics: diag}, nil
}
