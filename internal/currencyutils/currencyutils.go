// Package currencyutils parses and formats the amount notations found in
// bookkeeping exports.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for any string that is not a recognised amount.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	currencyTokens = regexp.MustCompile(`(?i)(EUR|CHF|USD|GBP|€|\$|£)`)
	spaceStripper  = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "", "\u2019", "")
)

// ParseDecimalSeparator validates a configured separator ("," or ".").
func ParseDecimalSeparator(s string) (rune, error) {
	switch strings.TrimSpace(s) {
	case ",", "comma":
		return ',', nil
	case ".", "period", "dot":
		return '.', nil
	default:
		return 0, fmt.Errorf("decimal separator must be ',' or '.', got %q", s)
	}
}

// GroupingSeparator returns the thousands separator that pairs with decimalSep.
func GroupingSeparator(decimalSep rune) rune {
	if decimalSep == ',' {
		return '.'
	}
	return ','
}

// ParseAmount converts amountStr into a decimal using decimalSep as the decimal
// separator. It accepts thousands grouping with the opposite separator,
// apostrophes or spaces, currency symbols and codes before or after the number,
// leading or trailing signs, parenthesised negatives and the Soll/Haben suffixes
// "S" (negative) and "H" (positive). Grouping must be well formed, so "1234.56"
// is rejected when the decimal separator is a comma.
func ParseAmount(amountStr string, decimalSep rune) (decimal.Decimal, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	s = strings.TrimSpace(currencyTokens.ReplaceAllString(s, ""))

	negative := false
	signs := 0

	if n := len(s); n > 1 && (isDigit(s[n-2]) || s[n-2] == ' ') {
		switch s[n-1] {
		case 'S', 's':
			negative = true
			signs++
			s = strings.TrimSpace(s[:n-1])
		case 'H', 'h':
			signs++
			s = strings.TrimSpace(s[:n-1])
		}
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		signs++
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, minus := range []string{"-", "\u2212"} {
		if strings.HasPrefix(s, minus) {
			negative = true
			signs++
			s = strings.TrimSpace(strings.TrimPrefix(s, minus))
		}
		if strings.HasSuffix(s, minus) {
			negative = true
			signs++
			s = strings.TrimSpace(strings.TrimSuffix(s, minus))
		}
	}
	if strings.HasPrefix(s, "+") {
		signs++
		s = strings.TrimSpace(s[1:])
	}
	if strings.HasSuffix(s, "+") {
		signs++
		s = strings.TrimSpace(s[:len(s)-1])
	}
	if signs > 1 {
		return decimal.Zero, fmt.Errorf("%w: conflicting signs in %q", ErrInvalidAmount, amountStr)
	}

	s = spaceStripper.Replace(s)
	normalized, err := normalizeDigits(s, decimalSep)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, amountStr, err)
	}

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, amountStr, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// normalizeDigits turns "1.234,56" (decimalSep ',') into "1234.56".
func normalizeDigits(s string, decimalSep rune) (string, error) {
	if s == "" {
		return "", errors.New("no digits")
	}
	parts := strings.Split(s, string(decimalSep))
	if len(parts) > 2 {
		return "", errors.New("more than one decimal separator")
	}

	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
		if fracPart == "" || !allDigits(fracPart) {
			return "", errors.New("malformed fractional part")
		}
	}

	group := string(GroupingSeparator(decimalSep))
	if strings.Contains(intPart, group) {
		chunks := strings.Split(intPart, group)
		for i, chunk := range chunks {
			if !allDigits(chunk) || (i == 0 && (len(chunk) == 0 || len(chunk) > 3)) || (i > 0 && len(chunk) != 3) {
				return "", errors.New("malformed digit grouping")
			}
		}
		intPart = strings.Join(chunks, "")
	}

	if intPart == "" {
		if fracPart == "" {
			return "", errors.New("no digits")
		}
		intPart = "0"
	}
	if !allDigits(intPart) {
		return "", errors.New("unexpected characters")
	}

	if fracPart == "" {
		return intPart, nil
	}
	return intPart + "." + fracPart, nil
}

// FormatAmount renders amount with two decimals, decimalSep and thousands grouping,
// e.g. "-1.234,56" for a comma separator.
func FormatAmount(amount decimal.Decimal, decimalSep rune) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	group := GroupingSeparator(decimalSep)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(group)
		}
		b.WriteRune(r)
	}
	b.WriteRune(decimalSep)
	b.WriteString(fracPart)
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
