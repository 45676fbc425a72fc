package csvparser

import (
	"context"
	"strings"
	"testing"

	"fjacquet/bwa-report/internal/common"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func newTestParser(opts Options) *Parser {
	return New(opts, logging.NewMockLogger())
}

func TestParse_GermanExport(t *testing.T) {
	input := `Konto;Betrag;Datum;Buchungstext
4000;1.234,56;15.04.2024;Spende Müller
6000;-800,00;01.04.2024;Miete April
`
	txs, diag, err := newTestParser(Options{}).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "4000", txs[0].AccountID)
	assert.Equal(t, "1234.56", txs[0].Amount.String())
	assert.Equal(t, "2024-04-15", txs[0].BookingDate.Format("2006-01-02"))
	assert.Equal(t, "Spende Müller", txs[0].Description)
	assert.Equal(t, 2, txs[0].SourceRow)
	assert.Equal(t, 3, txs[1].SourceRow)
	assert.Equal(t, "-800", txs[1].Amount.String())

	assert.Equal(t, ";", diag.Delimiter)
	assert.Equal(t, "utf-8", diag.Encoding)
	assert.Equal(t, 2, diag.RowsRead)
	assert.Equal(t, 2, diag.Loaded)
	assert.Equal(t, 0, diag.Skipped)
}

func TestParse_CommaDelimitedWithPeriodSeparator(t *testing.T) {
	input := "Account,Amount,Date,Description\n4000,\"1,234.56\",2024-04-15,\"Donation, anonymous\"\n"
	opts := Options{Options: common.Options{DecimalSeparator: '.'}}

	txs, diag, err := newTestParser(opts).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ",", diag.Delimiter)
	assert.Equal(t, "1234.56", txs[0].Amount.String())
	assert.Equal(t, "Donation, anonymous", txs[0].Description)
}

func TestParse_Windows1252(t *testing.T) {
	input, err := charmap.Windows1252.NewEncoder().String("Konto;Betrag;Datum;Buchungstext\r\n4000;5,00;02.01.2024;Gebühr Straße\r\n")
	require.NoError(t, err)

	txs, diag, err := newTestParser(Options{}).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "windows-1252", diag.Encoding)
	assert.Equal(t, "Gebühr Straße", txs[0].Description)
}

func TestParse_HeaderOnlyIsEmptySuccess(t *testing.T) {
	txs, diag, err := newTestParser(Options{}).Parse(context.Background(), strings.NewReader("Konto;Betrag;Datum;Buchungstext\n"))
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 0, diag.RowsRead)
}

func TestParse_SkipsBadRows(t *testing.T) {
	input := `Konto;Betrag;Datum;Buchungstext
4000;12,50;01.04.2024;ok
;10,00;01.04.2024;no account
4000;;01.04.2024;no amount
4000;abc;01.04.2024;bad amount
;;;
4000;7,00;;no date
4000;8,00;gestern;bad date
`
	txs, diag, err := newTestParser(Options{}).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, 6, diag.RowsRead, "blank rows are not counted")
	assert.Equal(t, 3, diag.Loaded)
	assert.Equal(t, 3, diag.Skipped)
	assert.Equal(t, 2, diag.Undated)
	require.Len(t, diag.Issues, 4)
	assert.Equal(t, 3, diag.Issues[0].Row)
	assert.False(t, diag.Issues[0].Kept)
	assert.True(t, diag.Issues[3].Kept, "unparseable date keeps the row")
	assert.Equal(t, 8, diag.Issues[3].Row)
}

func TestParse_AllRowsUnusable(t *testing.T) {
	input := "Konto;Betrag;Datum;Buchungstext\n;1,00;01.01.2024;x\n4000;x;01.01.2024;y\n"
	_, diag, err := newTestParser(Options{}).Parse(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, parsererror.ErrEmptyResult)
	assert.Equal(t, 2, diag.Skipped)
}

func TestParse_MissingColumns(t *testing.T) {
	_, _, err := newTestParser(Options{}).Parse(context.Background(), strings.NewReader("Name;Wert\nx;1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, parsererror.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "account")
}

func TestParse_EmptyInput(t *testing.T) {
	_, _, err := newTestParser(Options{}).Parse(context.Background(), strings.NewReader("\n\n"))
	assert.ErrorIs(t, err, parsererror.ErrEmptyResult)
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newTestParser(Options{}).Parse(ctx, strings.NewReader("Konto;Betrag;Datum;Text\n4000;1;01.01.2024;x\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_ExtraAliasesAndEncodingList(t *testing.T) {
	input, err := charmap.ISO8859_15.NewEncoder().String("Kostenstelle;Betrag €;Datum;Text\n100;5,00;01.01.2024;Spende\n")
	require.NoError(t, err)

	opts := Options{
		Options: common.Options{ExtraAliases: map[common.Column][]string{
			common.ColumnAccount: {"Kostenstelle"},
			common.ColumnAmount:  {"Betrag €"},
		}},
		Encodings: []string{"iso-8859-15"},
	}
	txs, diag, err := newTestParser(opts).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "iso-8859-15", diag.Encoding)
	assert.Equal(t, "100", txs[0].AccountID)
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"Konto;Betrag;Datum;Text", ';'},
		{"Account,Amount,Date,Description", ','},
		{`"Konto; alt",Betrag,Datum`, ','},
		{"Konto;Betrag,Datum", ';'},
		{"Konto\tBetrag\tDatum", ';'},
		{"Konto", ';'},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectDelimiter(tc.line), tc.line)
	}
}
