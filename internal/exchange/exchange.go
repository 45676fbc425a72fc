// Package exchange encodes a loaded transaction set together with its mapping
// table as one JSON document, and decodes such documents back into the same
// canonical structures.
package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"fjacquet/bwa-report/internal/dateutils"
	"fjacquet/bwa-report/internal/fileutils"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/shopspring/decimal"
)

// FormatVersion is written into every document. Documents with a higher
// version are rejected.
const FormatVersion = 1

// Document is the JSON envelope.
type Document struct {
	FormatVersion      int               `json:"format_version"`
	Transactions       []Entry           `json:"transactions"`
	AccountMappings    map[string]string `json:"account_mappings"`
	SuperGroupMappings map[string]string `json:"super_group_mappings"`
}

// Entry is one encoded transaction. Amount is a JSON number with two decimals
// and BookingDate is "YYYY-MM-DD" or null.
type Entry struct {
	AccountID   string      `json:"account_id"`
	Amount      json.Number `json:"amount"`
	BookingDate *string     `json:"booking_date"`
	Description string      `json:"description"`
	SourceRow   int         `json:"source_row"`
}

// Encode serialises transactions and table. The output is deterministic: the
// same inputs always produce the same bytes. A nil table encodes as empty maps.
func Encode(transactions []models.Transaction, table *mapping.Table) ([]byte, error) {
	if table == nil {
		table = mapping.NewTable()
	}
	snap := table.Export()

	doc := Document{
		FormatVersion:      FormatVersion,
		Transactions:       make([]Entry, len(transactions)),
		AccountMappings:    snap.AccountMappings,
		SuperGroupMappings: snap.SuperGroupMappings,
	}
	for i, tx := range transactions {
		entry := Entry{
			AccountID:   tx.AccountID,
			Amount:      json.Number(tx.Amount.StringFixed(2)),
			Description: tx.Description,
			SourceRow:   tx.SourceRow,
		}
		if tx.HasDate() {
			d := dateutils.ToISODate(tx.BookingDate)
			entry.BookingDate = &d
		}
		doc.Transactions[i] = entry
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("error encoding exchange document: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a document. Any structural defect fails the whole decode with
// a CorruptDocument error; unknown keys are ignored and missing mapping objects
// decode to empty tables. Decode returns a fresh table and never modifies an
// existing one.
func Decode(data []byte) ([]models.Transaction, *mapping.Table, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return nil, nil, corrupt("", "document is not a JSON object", err)
	}

	if raw, ok := top["format_version"]; ok && !isNull(raw) {
		var version int
		if err := json.Unmarshal(raw, &version); err != nil {
			return nil, nil, corrupt("format_version", "must be an integer", err)
		}
		if version > FormatVersion {
			return nil, nil, corrupt("format_version", fmt.Sprintf("unsupported version %d", version), nil)
		}
	}

	rawTxs, ok := top["transactions"]
	if !ok {
		return nil, nil, corrupt("transactions", "missing required key", nil)
	}
	var entries []json.RawMessage
	if isNull(rawTxs) {
		return nil, nil, corrupt("transactions", "must be an array", nil)
	}
	if err := json.Unmarshal(rawTxs, &entries); err != nil {
		return nil, nil, corrupt("transactions", "must be an array", err)
	}

	transactions := make([]models.Transaction, 0, len(entries))
	for i, rawEntry := range entries {
		tx, err := decodeEntry(i, rawEntry)
		if err != nil {
			return nil, nil, err
		}
		transactions = append(transactions, tx)
	}

	accounts, err := decodeMap(top, "account_mappings")
	if err != nil {
		return nil, nil, err
	}
	superGroups, err := decodeMap(top, "super_group_mappings")
	if err != nil {
		return nil, nil, err
	}
	table, err := mapping.FromSnapshot(mapping.Snapshot{AccountMappings: accounts, SuperGroupMappings: superGroups})
	if err != nil {
		return nil, nil, corrupt("mappings", "invalid mapping entry", err)
	}

	return transactions, table, nil
}

func decodeEntry(i int, raw json.RawMessage) (models.Transaction, error) {
	loc := func(field string) string {
		if field == "" {
			return fmt.Sprintf("transactions[%d]", i)
		}
		return fmt.Sprintf("transactions[%d].%s", i, field)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Transaction{}, corrupt(loc(""), "entry is not an object", err)
	}
	for _, key := range []string{"account_id", "amount", "booking_date"} {
		if _, ok := fields[key]; !ok {
			return models.Transaction{}, corrupt(loc(key), "missing required field", nil)
		}
	}

	var accountID string
	if err := json.Unmarshal(fields["account_id"], &accountID); err != nil || isNull(fields["account_id"]) {
		return models.Transaction{}, corrupt(loc("account_id"), "must be a string", err)
	}

	amount, err := decodeAmount(fields["amount"])
	if err != nil {
		return models.Transaction{}, corrupt(loc("amount"), "must be a decimal number", err)
	}

	var date time.Time
	if rawDate := fields["booking_date"]; !isNull(rawDate) {
		var s string
		if err := json.Unmarshal(rawDate, &s); err != nil {
			return models.Transaction{}, corrupt(loc("booking_date"), "must be a string or null", err)
		}
		date, err = time.Parse(dateutils.DateLayoutISO, s)
		if err != nil {
			return models.Transaction{}, corrupt(loc("booking_date"), "must be YYYY-MM-DD", err)
		}
	}

	var description string
	if rawDesc, ok := fields["description"]; ok && !isNull(rawDesc) {
		if err := json.Unmarshal(rawDesc, &description); err != nil {
			return models.Transaction{}, corrupt(loc("description"), "must be a string", err)
		}
	}

	sourceRow := i + 1
	if rawRow, ok := fields["source_row"]; ok && !isNull(rawRow) {
		if err := json.Unmarshal(rawRow, &sourceRow); err != nil {
			return models.Transaction{}, corrupt(loc("source_row"), "must be an integer", err)
		}
	}

	tx, err := models.NewTransactionBuilder().
		WithAccount(accountID).
		WithAmount(amount).
		WithBookingDate(date).
		WithDescription(description).
		WithSourceRow(sourceRow).
		Build()
	if err != nil {
		return models.Transaction{}, corrupt(loc(""), "invalid transaction", err)
	}
	return tx, nil
}

func decodeAmount(raw json.RawMessage) (decimal.Decimal, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return decimal.Zero, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return decimal.Zero, errors.New("not a number")
	}
	return decimal.NewFromString(n.String())
}

func decodeMap(top map[string]json.RawMessage, key string) (map[string]string, error) {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, corrupt(key, "must be an object of strings", err)
	}
	return m, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func corrupt(location, reason string, err error) error {
	return &parsererror.CorruptDocumentError{Location: location, Reason: reason, Err: err}
}

// WriteFile encodes to path.
func WriteFile(path string, transactions []models.Transaction, table *mapping.Table) error {
	data, err := Encode(transactions, table)
	if err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomic(path, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing exchange document: %w", err)
	}
	return nil
}

// ReadFile decodes the document at path.
func ReadFile(path string) ([]models.Transaction, *mapping.Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, &parsererror.NotFoundError{FilePath: path, Err: err}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error reading exchange document: %w", err)
	}
	txs, table, err := Decode(data)
	if err != nil {
		var cde *parsererror.CorruptDocumentError
		if errors.As(err, &cde) {
			cde.FilePath = path
		}
		return nil, nil, err
	}
	return txs, table, nil
}
