package parser

import (
	"fmt"

	"fjacquet/bwa-report/internal/csvparser"
	"fjacquet/bwa-report/internal/exchange"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"
	"fjacquet/bwa-report/internal/xlsxparser"
)

// Factory creates the parser for a source kind.
type Factory struct {
	opts   Options
	logger logging.Logger
}

// NewFactory creates a factory sharing opts across parsers.
func NewFactory(opts Options, logger logging.Logger) *Factory {
	return &Factory{opts: opts, logger: logging.OrDefault(logger)}
}

// GetParser returns a new instance of the parser for kind.
func (f *Factory) GetParser(kind models.SourceKind) (Parser, error) {
	switch kind {
	case models.DelimitedText:
		return &DelimitedAdapter{parser: csvparser.New(csvparser.Options{
			Options:   f.opts.Tabular,
			Encodings: f.opts.Encodings,
		}, f.logger)}, nil
	case models.Spreadsheet:
		return &SpreadsheetAdapter{parser: xlsxparser.New(xlsxparser.Options{
			Options: f.opts.Tabular,
			Sheets:  f.opts.Sheets,
		}, f.logger)}, nil
	case models.JSONExchange:
		return &ExchangeAdapter{parser: exchange.NewParser(f.logger)}, nil
	default:
		return nil, &parsererror.InvalidFormatError{
			ExpectedFormat: "delimited-text, spreadsheet or json-exchange",
			Msg:            fmt.Sprintf("unknown source kind %q", kind),
		}
	}
}
