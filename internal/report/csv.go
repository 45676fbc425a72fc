package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// CSVRenderer writes the flat listing as comma separated values with dot decimals.
type CSVRenderer struct {
	// Delimiter defaults to ','.
	Delimiter rune
}

func (r *CSVRenderer) Render(w io.Writer, rep Report) error {
	csvWriter := csv.NewWriter(w)
	if r.Delimiter != 0 {
		csvWriter.Comma = r.Delimiter
	}
	rows := Rows(rep)
	if len(rows) == 0 {
		if err := csvWriter.Write(csvHeader()); err != nil {
			return fmt.Errorf("error writing CSV header: %w", err)
		}
	} else if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV report: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func csvHeader() []string {
	return []string{"Period", "Quarter", "Policy", "Kind", "SuperGroup", "Category", "Count", "Amount"}
}
