package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceKind tags the decode path of an input source.
type SourceKind string

const (
	DelimitedText SourceKind = "delimited-text"
	Spreadsheet   SourceKind = "spreadsheet"
	JSONExchange  SourceKind = "json-exchange"
)

var extensionKinds = map[string]SourceKind{
	".csv":  DelimitedText,
	".txt":  DelimitedText,
	".xlsx": Spreadsheet,
	".xlsm": Spreadsheet,
	".json": JSONExchange,
}

// KindFromPath derives the source kind from a file extension.
func KindFromPath(path string) (SourceKind, bool) {
	kind, ok := extensionKinds[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// ParseSourceKind accepts the kind names and the short aliases csv, xlsx and json.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(DelimitedText), "csv", "text":
		return DelimitedText, nil
	case string(Spreadsheet), "xlsx", "excel":
		return Spreadsheet, nil
	case string(JSONExchange), "json":
		return JSONExchange, nil
	default:
		return "", fmt.Errorf("unknown source kind: %s", s)
	}
}

// Source locates one input together with its kind. An empty Kind is derived
// from the path extension by the loader.
type Source struct {
	Path string
	Kind SourceKind
}
