// Package parsererror defines the error taxonomy shared by the loading, mapping,
// aggregation and exchange components. Every fatal error carries one of the
// sentinel kinds below so callers can branch with errors.Is or KindOf.
package parsererror

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	ErrNotFound          = errors.New("source not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyResult       = errors.New("no usable transactions")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrCorruptDocument   = errors.New("corrupt exchange document")
	ErrPartialRowSkipped = errors.New("row skipped")
)

// Kind classifies an error for user-facing messages and exit codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnsupportedFormat
	KindEmptyResult
	KindInvalidArgument
	KindCorruptDocument
	KindPartialRowSkipped
)

var kindSentinels = []struct {
	kind Kind
	err  error
}{
	{KindNotFound, ErrNotFound},
	{KindUnsupportedFormat, ErrUnsupportedFormat},
	{KindEmptyResult, ErrEmptyResult},
	{KindInvalidArgument, ErrInvalidArgument},
	{KindCorruptDocument, ErrCorruptDocument},
	{KindPartialRowSkipped, ErrPartialRowSkipped},
}

// KindOf returns the kind of err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindEmptyResult:
		return "EmptyResult"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindCorruptDocument:
		return "CorruptDocument"
	case KindPartialRowSkipped:
		return "PartialRowSkipped"
	default:
		return "Unknown"
	}
}

// ExitCode maps the kind to a process exit status.
func (k Kind) ExitCode() int {
	switch k {
	case KindNotFound:
		return 2
	case KindUnsupportedFormat:
		return 3
	case KindEmptyResult:
		return 4
	case KindInvalidArgument:
		return 5
	case KindCorruptDocument:
		return 6
	default:
		return 1
	}
}

// ParseError is a row-level failure in tabular input. It is absorbed by the
// loader and reported as a diagnostic; it matches ErrPartialRowSkipped.
type ParseError struct {
	Parser string
	Row    int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: failed to parse %s='%s': %v",
		e.Parser, e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrPartialRowSkipped
}

// NotFoundError reports a missing input source.
type NotFoundError struct {
	FilePath string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source not found: %s: %v", e.FilePath, e.Err)
	}
	return fmt.Sprintf("source not found: %s", e.FilePath)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidFormatError represents an input that does not conform to the expected
// format, e.g. an unknown extension or a header lacking required columns.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// EmptyResultError reports an input that was read but produced no usable rows.
type EmptyResultError struct {
	FilePath string
	Rows     int
	Skipped  int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no usable transactions in '%s': %d data rows, %d skipped",
		e.FilePath, e.Rows, e.Skipped)
}

func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

// CorruptDocumentError reports a structural defect in an exchange document.
// Location is a JSON path such as "transactions[3].amount".
type CorruptDocumentError struct {
	FilePath string
	Location string
	Reason   string
	Err      error
}

func (e *CorruptDocumentError) Error() string {
	msg := "corrupt exchange document"
	if e.FilePath != "" {
		msg += fmt.Sprintf(" '%s'", e.FilePath)
	}
	if e.Location != "" {
		msg += fmt.Sprintf(" at %s", e.Location)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *CorruptDocumentError) Unwrap() error {
	return e.Err
}

func (e *CorruptDocumentError) Is(target error) bool {
	return target == ErrCorruptDocument
}

// ValidationError represents a rejected argument value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}
