package search

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money columns are NUMERIC(10,2); anything past these bounds is never a price.
const (
	maxDecimalLen      = 32
	maxDecimalExponent = 10
)

var (
	ErrDecimalSyntax = errors.New("invalid decimal")
	// ErrDecimalRange the exponent is too large (too many digits) or too small (too many places).
	ErrDecimalRange = errors.New("decimal out of range")
)

// ParseDecimal parses s and rejects exponents outside ±10 before any
// arithmetic touches the value. "1e10000000" would otherwise rescale to a
// ten-million-digit integer on the first comparison. On ErrDecimalRange the
// parsed value is still returned so callers can inspect its Exponent.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxDecimalLen {
		return decimal.Zero, ErrDecimalSyntax
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrDecimalSyntax
	}
	if exp := d.Exponent(); exp > maxDecimalExponent || exp < -maxDecimalExponent {
		return d, ErrDecimalRange
	}
	return d, nil
}
