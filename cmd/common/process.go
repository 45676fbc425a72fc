// Package common contains shared functionality for command handlers
package common

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"fjacquet/bwa-report/internal/config"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parser"
	"fjacquet/bwa-report/internal/parsererror"
	"fjacquet/bwa-report/internal/report"
	"fjacquet/bwa-report/internal/validation"
)

// MaxListedIssues bounds the row issues printed by PrintDiagnostics.
const MaxListedIssues = 20

// Sources validates the input paths and tags them with kind, which may be
// empty to derive the kind from each extension.
func Sources(paths []string, kind string) ([]models.Source, error) {
	if len(paths) == 0 {
		return nil, &parsererror.ValidationError{Field: "input", Reason: "at least one input file is required (-i)"}
	}
	var sk models.SourceKind
	if kind != "" {
		parsed, err := models.ParseSourceKind(kind)
		if err != nil {
			return nil, &parsererror.ValidationError{Field: "kind", Value: kind, Reason: err.Error()}
		}
		sk = parsed
	}
	sources := make([]models.Source, 0, len(paths))
	for _, p := range paths {
		if err := validation.ValidateInputFile(p); err != nil {
			return nil, err
		}
		sources = append(sources, models.Source{Path: p, Kind: sk})
	}
	return sources, nil
}

// YearFilter converts the --year flag; zero disables the year filter.
func YearFilter(year int) (*int, error) {
	if year == 0 {
		return nil, nil
	}
	if year < 1900 || year > 9999 {
		return nil, &parsererror.ValidationError{Field: "year", Value: fmt.Sprint(year), Reason: "must be a four digit year"}
	}
	return &year, nil
}

// Policy resolves the --policy flag against the configured default.
func Policy(flag string, cfg *config.Config) (models.Policy, error) {
	name := flag
	if name == "" {
		name = cfg.Report.Policy
	}
	p, err := models.ParsePolicy(name)
	if err != nil {
		return "", &parsererror.ValidationError{Field: "policy", Value: name, Reason: "must be quarterly or cumulative"}
	}
	return p, nil
}

// Format resolves the --format flag against the configured default.
func Format(flag string, cfg *config.Config) (report.Format, error) {
	if flag == "" {
		flag = cfg.Report.Format
	}
	return report.ParseFormat(flag)
}

// ReportTemplate fills the report header from the configuration.
func ReportTemplate(cfg *config.Config, policy models.Policy, year *int) report.Report {
	rep := report.Report{
		Title:            cfg.Report.Title,
		Organization:     cfg.Report.Organization,
		Policy:           policy,
		GeneratedAt:      time.Now(),
		DecimalSeparator: cfg.DecimalSeparator(),
	}
	if year != nil {
		rep.Year = *year
	}
	return rep
}

// WriteReport renders rep into output, or to stdout when output is empty.
// PDF output always needs a file.
func WriteReport(stdout io.Writer, format report.Format, rep report.Report, output string, logger logging.Logger) error {
	renderer, err := report.NewRenderer(format)
	if err != nil {
		return err
	}
	if output == "" {
		if format == report.FormatPDF {
			return &parsererror.ValidationError{Field: "output", Reason: "PDF reports need an output file (-o)"}
		}
		return renderer.Render(stdout, rep)
	}
	if err := validation.ValidateOutputFile(output); err != nil {
		return err
	}
	return report.WriteFile(output, renderer, rep, logger)
}

// PrintDiagnostics writes a human-readable load summary.
func PrintDiagnostics(w io.Writer, res *parser.LoadResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	sources := res.Sources
	if len(sources) == 0 {
		sources = []models.Diagnostics{res.Diagnostics}
	}
	for _, d := range sources {
		fmt.Fprintf(tw, "Source:\t%s\n", d.Source)
		fmt.Fprintf(tw, "Kind:\t%s\n", d.Kind)
		if d.Encoding != "" {
			fmt.Fprintf(tw, "Encoding:\t%s\n", d.Encoding)
		}
		if d.Delimiter != "" {
			fmt.Fprintf(tw, "Delimiter:\t%q\n", d.Delimiter)
		}
		fmt.Fprintf(tw, "Rows read:\t%d\n", d.RowsRead)
		fmt.Fprintf(tw, "Loaded:\t%d\n", d.Loaded)
		fmt.Fprintf(tw, "Skipped:\t%d\n", d.Skipped)
		fmt.Fprintf(tw, "Undated:\t%d\n", d.Undated)
		if len(d.SkippedSheets) > 0 {
			fmt.Fprintf(tw, "Skipped sheets:\t%s\n", strings.Join(d.SkippedSheets, "; "))
		}
		for i, issue := range d.Issues {
			if i == MaxListedIssues {
				fmt.Fprintf(tw, "\t... %d more issues\n", len(d.Issues)-MaxListedIssues)
				break
			}
			state := "skipped"
			if issue.Kept {
				state = "kept"
			}
			location := fmt.Sprintf("row %d", issue.Row)
			if issue.Sheet != "" {
				location = issue.Sheet + " " + location
			}
			fmt.Fprintf(tw, "  %s\t%s %s %q: %s\n", location, state, issue.Field, issue.Value, issue.Reason)
		}
		fmt.Fprintln(tw)
	}
	if len(res.Sources) > 1 {
		fmt.Fprintf(tw, "Total transactions:\t%d\n", len(res.Transactions))
	}
	return tw.Flush()
}
