package parsererror

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	err := &ParseError{
		Parser: "csv",
		Row:    4,
		Field:  "amount",
		Value:  "12,3x",
		Err:    errors.New("invalid decimal"),
	}

	assert.Equal(t, "csv: row 4: failed to parse amount='12,3x': invalid decimal", err.Error())
	assert.True(t, errors.Is(err, ErrPartialRowSkipped))
	assert.False(t, errors.Is(err, ErrEmptyResult))
	assert.Equal(t, KindPartialRowSkipped, KindOf(err))
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{FilePath: "/data/missing.csv", Err: fs.ErrNotExist}

	assert.Equal(t, "source not found: /data/missing.csv: file does not exist", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "source not found: x.csv", (&NotFoundError{FilePath: "x.csv"}).Error())
}

func TestInvalidFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      *InvalidFormatError
		expected string
	}{
		{
			name: "with content snippet",
			err: &InvalidFormatError{
				FilePath:             "/data/export.csv",
				ExpectedFormat:       "account, amount, date and description columns",
				ActualContentSnippet: "Foo;Bar",
				Msg:                  "missing columns: amount, date",
			},
			expected: "invalid format in file '/data/export.csv': missing columns: amount, date. Expected: account, amount, date and description columns. Content snippet: 'Foo;Bar'",
		},
		{
			name: "without content snippet",
			err: &InvalidFormatError{
				FilePath:       "/data/export.ods",
				ExpectedFormat: ".csv, .xlsx or .json",
				Msg:            "unrecognized extension",
			},
			expected: "invalid format in file '/data/export.ods': unrecognized extension. Expected: .csv, .xlsx or .json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.True(t, errors.Is(tt.err, ErrUnsupportedFormat))
		})
	}
}

func TestCorruptDocumentError(t *testing.T) {
	err := &CorruptDocumentError{
		FilePath: "doc.json",
		Location: "transactions[2].amount",
		Reason:   "missing required field",
	}
	assert.Equal(t, "corrupt exchange document 'doc.json' at transactions[2].amount: missing required field", err.Error())

	inner := errors.New("unexpected EOF")
	wrapped := &CorruptDocumentError{Reason: "invalid JSON", Err: inner}
	assert.Equal(t, "corrupt exchange document: invalid JSON: unexpected EOF", wrapped.Error())
	assert.True(t, errors.Is(wrapped, ErrCorruptDocument))
	assert.True(t, errors.Is(wrapped, inner))
}

func TestEmptyResultAndValidationErrors(t *testing.T) {
	empty := &EmptyResultError{FilePath: "a.csv", Rows: 3, Skipped: 3}
	assert.Equal(t, "no usable transactions in 'a.csv': 3 data rows, 3 skipped", empty.Error())
	assert.Equal(t, KindEmptyResult, KindOf(empty))

	invalid := &ValidationError{Field: "quarter", Value: "5", Reason: "must be between 1 and 4"}
	assert.Equal(t, "invalid quarter '5': must be between 1 and 4", invalid.Error())
	assert.Equal(t, KindInvalidArgument, KindOf(invalid))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err      error
		kind     Kind
		name     string
		exitCode int
	}{
		{err: nil, kind: KindUnknown, name: "Unknown", exitCode: 1},
		{err: errors.New("plain"), kind: KindUnknown, name: "Unknown", exitCode: 1},
		{err: fmt.Errorf("load: %w", ErrNotFound), kind: KindNotFound, name: "NotFound", exitCode: 2},
		{err: fmt.Errorf("load: %w", &InvalidFormatError{}), kind: KindUnsupportedFormat, name: "UnsupportedFormat", exitCode: 3},
		{err: fmt.Errorf("load: %w", &EmptyResultError{}), kind: KindEmptyResult, name: "EmptyResult", exitCode: 4},
		{err: fmt.Errorf("aggregate: %w", ErrInvalidArgument), kind: KindInvalidArgument, name: "InvalidArgument", exitCode: 5},
		{err: fmt.Errorf("decode: %w", &CorruptDocumentError{}), kind: KindCorruptDocument, name: "CorruptDocument", exitCode: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := KindOf(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.name, kind.String())
			assert.Equal(t, tt.exitCode, kind.ExitCode())
		})
	}
}
