// Money parsing and rounding helpers.
//
// All monetary values are decimal.Decimal, summed exactly and rounded to
// cents only at the edges (persistence, display, the installment split).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseMoney parses a user- or store-supplied amount. It accepts both dot
// and comma decimal separators and rejects negative and zero amounts.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidValue
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidValue
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidValue
	}
	return Round2(d), nil
}
