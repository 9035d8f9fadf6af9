package normalize

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoDrgCode is returned when neither the code column nor the description
// carries a recognizable MS-DRG code.
var ErrNoDrgCode = errors.New("no MS-DRG code in code column or description")

var (
	nonDigit          = regexp.MustCompile(`[^0-9]`)
	leadingDrgCode    = regexp.MustCompile(`^\s*(\d{3})\b`)
	leadingCodeDigits = regexp.MustCompile(`^\d{1,3}$`)
)

// DrgCode derives the zero-padded 3-digit MS-DRG code for a price line.
// The explicit code column wins (its first whitespace token); otherwise the
// leading 3-digit code of a description such as "470 - MAJOR JOINT ..." is used.
func DrgCode(code, description string) (string, error) {
	if tok := firstToken(code); tok != "" {
		if !leadingCodeDigits.MatchString(tok) {
			return "", ErrNoDrgCode
		}
		return padLeft(tok, 3), nil
	}
	if m := leadingDrgCode.FindStringSubmatch(description); m != nil {
		return m[1], nil
	}
	return "", ErrNoDrgCode
}

// CCN normalizes a facility identifier to a 6-digit numeric string.
// Returns "" when the input carries no digits.
func CCN(v string) string {
	digits := nonDigit.ReplaceAllString(v, "")
	if digits == "" {
		return ""
	}
	if len(digits) > 6 {
		return digits
	}
	return padLeft(digits, 6)
}

// Zip5 keeps the digits of a ZIP, zero-pads them to five and truncates ZIP+4.
// An empty or digit-less input yields "00000".
func Zip5(v string) string {
	digits := nonDigit.ReplaceAllString(v, "")
	if len(digits) >= 5 {
		return digits[:5]
	}
	return padLeft(digits, 5)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
