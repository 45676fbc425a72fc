// Package parser is the input normalizer: it resolves the kind of a source,
// dispatches to the decoder for that kind and returns canonical transactions
// behind one contract.
package parser

import (
	"context"
	"io"

	"fjacquet/bwa-report/internal/common"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
)

// Parser decodes one source into canonical transactions.
type Parser interface {
	// Parse reads r completely. Row-level problems in tabular input are
	// absorbed into the diagnostics; fatal problems are returned as errors
	// carrying a parsererror kind.
	Parse(ctx context.Context, r io.Reader) (*LoadResult, error)
}

// LoadResult is the outcome of a load.
type LoadResult struct {
	Transactions []models.Transaction
	// Mapping is set only for exchange documents, which carry their own table.
	Mapping     *mapping.Table
	Diagnostics models.Diagnostics
	// Sources holds the per-source diagnostics of a multi-source load.
	Sources []models.Diagnostics
}

// Options carries the coercion rules for every source kind.
type Options struct {
	Tabular common.Options
	// Encodings is the ordered candidate list for delimited text.
	Encodings []string
	// Sheets restricts spreadsheet parsing to the named sheets.
	Sheets []string
}
