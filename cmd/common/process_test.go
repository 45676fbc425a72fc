package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/bwa-report/internal/config"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parser"
	"fjacquet/bwa-report/internal/parsererror"
	"fjacquet/bwa-report/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	sources, err := Sources([]string{path}, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, []models.Source{{Path: path, Kind: models.Spreadsheet}}, sources)

	sources, err = Sources([]string{path}, "")
	require.NoError(t, err)
	assert.Empty(t, sources[0].Kind)

	_, err = Sources(nil, "")
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)

	_, err = Sources([]string{path}, "ods")
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)

	_, err = Sources([]string{filepath.Join(dir, "missing.csv")}, "")
	assert.ErrorIs(t, err, parsererror.ErrNotFound)
}

func TestYearFilter(t *testing.T) {
	year, err := YearFilter(0)
	require.NoError(t, err)
	assert.Nil(t, year)

	year, err = YearFilter(2024)
	require.NoError(t, err)
	require.NotNil(t, year)
	assert.Equal(t, 2024, *year)

	_, err = YearFilter(24)
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)
}

func TestPolicyAndFormatFallBackToConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Report.Policy = "cumulative"
	cfg.Report.Format = "csv"

	p, err := Policy("", cfg)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyCumulative, p)

	p, err = Policy("quarterly", cfg)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyQuarterly, p)

	_, err = Policy("monthly", cfg)
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)

	f, err := Format("", cfg)
	require.NoError(t, err)
	assert.Equal(t, report.FormatCSV, f)
}

func TestWriteReport(t *testing.T) {
	rep := report.Report{Title: "BWA", Policy: models.PolicyQuarterly}

	err := WriteReport(&bytes.Buffer{}, report.FormatPDF, rep, "", logging.NewMockLogger())
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)

	var out bytes.Buffer
	require.NoError(t, WriteReport(&out, report.FormatJSON, rep, "", logging.NewMockLogger()))
	assert.Contains(t, out.String(), `"title"`)

	path := filepath.Join(t.TempDir(), "r.txt")
	require.NoError(t, WriteReport(&out, report.FormatText, rep, path, logging.NewMockLogger()))
	assert.FileExists(t, path)
}

func TestPrintDiagnostics(t *testing.T) {
	d := models.Diagnostics{
		Source:    "export.csv",
		Kind:      models.DelimitedText,
		Encoding:  "windows-1252",
		Delimiter: ";",
		RowsRead:  3,
		Loaded:    2,
		Skipped:   1,
	}
	for i := 0; i < MaxListedIssues+5; i++ {
		d.Issues = append(d.Issues, models.RowIssue{Row: i + 2, Field: "amount", Value: "x", Reason: "not a number"})
	}

	var out bytes.Buffer
	require.NoError(t, PrintDiagnostics(&out, &parser.LoadResult{Diagnostics: d}))
	text := out.String()
	assert.Contains(t, text, "windows-1252")
	assert.Contains(t, text, `";"`)
	assert.Contains(t, text, "... 5 more issues")
	assert.NotContains(t, text, "Total transactions")
}
