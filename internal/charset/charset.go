// Package charset detects the text encoding of bookkeeping exports and decodes
// them to UTF-8.
package charset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Candidate names accepted in configuration.
const (
	UTF8        = "utf-8"
	Windows1252 = "windows-1252"
	ISO88591    = "iso-8859-1"
	ISO885915   = "iso-8859-15"
)

// DefaultCandidates is the detection order used when none is configured.
var DefaultCandidates = []string{UTF8, Windows1252, ISO88591, ISO885915}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Lookup returns the decoder for an encoding name. Common aliases such as
// "cp1252", "latin1" and "latin9" are accepted.
func Lookup(name string) (encoding.Encoding, string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return unicode.UTF8, UTF8, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, ISO88591, nil
	case "iso-8859-15", "latin9", "latin-9":
		return charmap.ISO8859_15, ISO885915, nil
	default:
		return nil, "", fmt.Errorf("unsupported encoding: %s", name)
	}
}

// Decode converts data to UTF-8 using the first candidate that decodes the whole
// input without producing a replacement character. Valid UTF-8 is accepted
// as is, including an encoded U+FFFD. The UTF-8 byte order mark is
// stripped. It returns the decoded text and the canonical name of the encoding.
func Decode(data []byte, candidates []string) ([]byte, string, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	if bytes.HasPrefix(data, utf8BOM) {
		return data[len(utf8BOM):], UTF8, nil
	}

	for _, candidate := range candidates {
		enc, name, err := Lookup(candidate)
		if err != nil {
			return nil, "", err
		}
		if name == UTF8 {
			if utf8.Valid(data) {
				return data, UTF8, nil
			}
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if !bytes.ContainsRune(decoded, utf8.RuneError) {
			return decoded, name, nil
		}
	}
	return nil, "", fmt.Errorf("no candidate encoding decodes the input cleanly (tried %s)", strings.Join(candidates, ", "))
}

// Validate checks that every configured candidate is known.
func Validate(candidates []string) error {
	for _, c := range candidates {
		if _, _, err := Lookup(c); err != nil {
			return err
		}
	}
	return nil
}
