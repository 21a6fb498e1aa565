// Package money formats monetary values at presentation and export
// boundaries. Stored values keep full float precision; rounding to two
// decimals happens only here.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Symbol prefixes every formatted amount.
const Symbol = "R$"

// Round rounds v half away from zero to two decimals.
func Round(v float64) float64 {
	return toDecimal(v).Round(2).InexactFloat64()
}

// Format renders v as "R$ 1234.50".
func Format(v float64) string {
	return Symbol + " " + Fixed(v)
}

// Fixed renders v with exactly two decimals and no symbol.
func Fixed(v float64) string {
	return toDecimal(v).StringFixed(2)
}

// Percent renders v as "12.50%".
func Percent(v float64) string {
	return Fixed(v) + "%"
}

func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
