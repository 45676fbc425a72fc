package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldSourceKind = "source_kind"
	FieldSheet      = "sheet"
	FieldRow        = "row"
	FieldColumn     = "column"
	FieldAccount    = "account_id"
	FieldCategory   = "category"
	FieldSuperGroup = "super_group"
	FieldQuarter    = "quarter"
	FieldPolicy     = "policy"
	FieldYear       = "year"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldCount      = "count"
	FieldSkipped    = "skipped"
	FieldDelimiter  = "delimiter"
	FieldEncoding   = "encoding"
	FieldBackend    = "backend"
	FieldSession    = "session_id"
	FieldFormat     = "format"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldDurationMS = "duration_ms"
)
