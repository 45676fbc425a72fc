// Package report renders period summaries as PDF, CSV, text or JSON.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/bwa-report/internal/currencyutils"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Format names an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatPDF, FormatCSV, FormatText, FormatJSON}

// ParseFormat accepts a format name; "txt" is accepted for text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatCSV, FormatText, FormatJSON:
		return f, nil
	case "txt":
		return FormatText, nil
	default:
		return "", &parsererror.ValidationError{Field: "format", Value: s, Reason: "must be pdf, csv, text or json"}
	}
}

// Extension returns the file extension of f including the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// Report is everything a renderer needs.
type Report struct {
	Title        string
	Organization string
	// Year is zero when the windows apply to every year present.
	Year    int
	Policy  models.Policy
	Periods []*models.PeriodSummary
	Sources []string
	// GeneratedAt is omitted from the output when zero.
	GeneratedAt time.Time
	// DecimalSeparator is used by the human-readable formats. Zero selects '.'.
	DecimalSeparator rune
}

// Heading returns the title line, falling back to a generic title.
func (r Report) Heading() string {
	title := r.Title
	if title == "" {
		title = "BWA"
	}
	if r.Year != 0 {
		return fmt.Sprintf("%s %d", title, r.Year)
	}
	return title
}

func (r Report) amount(d decimal.Decimal) string {
	if r.DecimalSeparator == 0 || r.DecimalSeparator == '.' {
		return models.Present(d)
	}
	return currencyutils.FormatAmount(d, r.DecimalSeparator)
}

// Renderer writes a report to w.
type Renderer interface {
	Render(w io.Writer, rep Report) error
}

// NewRenderer returns the renderer for format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatPDF:
		return &PDFRenderer{}, nil
	case FormatCSV:
		return &CSVRenderer{}, nil
	case FormatText:
		return &TextRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	default:
		return nil, &parsererror.ValidationError{Field: "format", Value: string(format), Reason: "unsupported report format"}
	}
}

// Row kinds of the flat listing.
const (
	RowCategory   = "category"
	RowSuperGroup = "super_group"
	RowTotal      = "total"
)

// Row is one line of the flat listing shared by the CSV and text formats.
type Row struct {
	Period     string `csv:"Period"`
	Quarter    int    `csv:"Quarter"`
	Policy     string `csv:"Policy"`
	Kind       string `csv:"Kind"`
	SuperGroup string `csv:"SuperGroup"`
	Category   string `csv:"Category"`
	Count      int    `csv:"Count"`
	Amount     string `csv:"Amount"`
}

// Rows flattens the report: per period, each super-group in label order with
// its categories followed by a subtotal, then the period total.
func Rows(rep Report) []Row {
	var rows []Row
	for _, s := range rep.Periods {
		base := Row{Period: s.Label(), Quarter: s.Quarter, Policy: string(s.Policy)}
		for _, group := range s.SuperGroups() {
			count := 0
			for _, category := range s.CategoriesOf(group) {
				r := base
				r.Kind = RowCategory
				r.SuperGroup = group
				r.Category = category
				r.Count = s.CategoryCounts[category]
				r.Amount = models.Present(s.CategoryTotal(category))
				rows = append(rows, r)
				count += r.Count
			}
			r := base
			r.Kind = RowSuperGroup
			r.SuperGroup = group
			r.Count = count
			r.Amount = models.Present(s.SuperGroupTotal(group))
			rows = append(rows, r)
		}
		r := base
		r.Kind = RowTotal
		r.Count = s.Included
		r.Amount = models.Present(s.Total)
		rows = append(rows, r)
	}
	return rows
}

// WriteFile renders rep into path, creating its directory.
func WriteFile(path string, renderer Renderer, rep Report, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionReportFile)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	if err := renderer.Render(file, rep); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing report file: %w", err)
	}

	logger.Info("Wrote report",
		logging.Field{Key: logging.FieldOutputFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(rep.Periods)})
	return nil
}
