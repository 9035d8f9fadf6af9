package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrBadAmount is returned for a non-blank amount that is not a number.
var ErrBadAmount = errors.New("malformed dollar amount")

var moneyReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// Money parses a dollar amount such as "$12,345.678" into a decimal rounded
// to cents. Empty input yields nil; unparseable input yields nil and an error.
func Money(v string) (*decimal.Decimal, error) {
	s := moneyReplacer.Replace(strings.TrimSpace(v))
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse money %q: %w: %w", v, ErrBadAmount, err)
	}
	d = d.Round(2)
	return &d, nil
}
