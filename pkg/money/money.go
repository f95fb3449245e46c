// Package money wraps shopspring/decimal with the conventions the billing
// engine uses for amounts: full internal precision, rounding to the currency
// minor unit (2 decimals) only at presentation boundaries.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Zero is the zero amount.
var Zero = decimal.Zero

// Round2 rounds an amount to two decimal places (half-up). Used when a value
// crosses a presentation boundary (invoice subtotals, report totals); stored
// amounts keep full precision.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Parse parses a user-supplied amount string.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Percent returns amount × rate / 100 at full precision.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100))
}

// Complement returns amount × (100 − rate) / 100 at full precision.
func Complement(amount, rate decimal.Decimal) decimal.Decimal {
	return Percent(amount, decimal.NewFromInt(100).Sub(rate))
}

// ValidRate reports whether a percentage rate lies in [0, 100].
func ValidRate(rate decimal.Decimal) bool {
	return rate.Cmp(decimal.Zero) >= 0 && rate.Cmp(decimal.NewFromInt(100)) <= 0
}
