// Package money provides fixed-scale decimal helpers for monetary amounts.
//
// All public helpers round HALF_UP at scale 2, matching the convention of
// the PRA fiscal API which re-validates totals to the paisa. Intermediate
// values keep full precision; only the named rounding points truncate.
package money

import (
	"github.com/shopspring/decimal"
)

// allocScale is the precision used for intermediate division when splitting
// an amount proportionally. Must be high enough that re-multiplication does
// not lose paisa.
const allocScale = 10

// Round2 rounds d to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Sum returns the sum of all values at full precision.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FloorZero clamps negative values to zero.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Share returns part's proportional share of amount relative to whole,
// rounded to scale 2. The intermediate quotient is computed at scale 10
// HALF_UP before multiplication, so shares of sibling parts sum to within
// a cent or two of amount. Returns zero when whole or amount is not
// positive.
func Share(part, whole, amount decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() || !amount.IsPositive() {
		return decimal.Zero
	}
	ratio := part.DivRound(whole, allocScale)
	return Round2(ratio.Mul(amount))
}
