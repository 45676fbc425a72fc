package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/bwa-report/internal/dateutils"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"

	"github.com/gocarina/gocsv"
)

// TransactionRow is the flat CSV listing of a classified transaction.
type TransactionRow struct {
	SourceRow   int    `csv:"SourceRow"`
	AccountID   string `csv:"AccountID"`
	BookingDate string `csv:"BookingDate"`
	Amount      string `csv:"Amount"`
	Description string `csv:"Description"`
	Category    string `csv:"Category"`
	SuperGroup  string `csv:"SuperGroup"`
}

// ClassifiedRows resolves every transaction against table. A nil table leaves
// all transactions unmapped.
func ClassifiedRows(transactions []models.Transaction, table *mapping.Table) []TransactionRow {
	if table == nil {
		table = mapping.NewTable()
	}
	rows := make([]TransactionRow, len(transactions))
	for i, tx := range transactions {
		category := table.ResolveCategory(tx.AccountID)
		rows[i] = TransactionRow{
			SourceRow:   tx.SourceRow,
			AccountID:   tx.AccountID,
			BookingDate: dateutils.ToISODate(tx.BookingDate),
			Amount:      models.Present(tx.Amount),
			Description: tx.Description,
			Category:    category,
			SuperGroup:  table.ResolveSuperGroup(category),
		}
	}
	return rows
}

// WriteTransactionsToCSV writes the classified listing of transactions to w.
func WriteTransactionsToCSV(w io.Writer, transactions []models.Transaction, table *mapping.Table, delimiter rune) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}
	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}
	rows := ClassifiedRows(transactions, table)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteTransactionsToCSVFile writes the listing to csvFile, creating its directory.
func WriteTransactionsToCSVFile(csvFile string, transactions []models.Transaction, table *mapping.Table, delimiter rune, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	if err := os.MkdirAll(filepath.Dir(csvFile), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	file, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteTransactionsToCSV(file, transactions, table, delimiter); err != nil {
		return err
	}

	logger.Info("Wrote transaction listing",
		logging.Field{Key: logging.FieldFile, Value: csvFile},
		logging.Field{Key: logging.FieldCount, Value: len(transactions)})
	return nil
}
