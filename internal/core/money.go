// Money helpers for the ledger. Amounts are whole currency units held
// as int64; every multiplication or division goes through decimals and
// is rounded half away from zero, so row-level figures and aggregated
// totals can never drift apart.

package core

import "github.com/shopspring/decimal"

var tenThousand = decimal.NewFromInt(10000)

// TenThousands converts a whole-unit amount to ten-thousand units (萬),
// rounded to the nearest integer. Tickets and funder summaries quote
// amounts in this unit: 500000 reads as 50.
func TenThousands(amount int64) int64 {
	return decimal.NewFromInt(amount).Div(tenThousand).Round(0).IntPart()
}

// FromTenThousands converts an amount in ten-thousand units back to
// whole currency units, rounding fractional input to the nearest unit.
func FromTenThousands(n float64) int64 {
	return decimal.NewFromFloat(n).Mul(tenThousand).Round(0).IntPart()
}

// percentOf returns amount × ratePercent / 100 in whole currency
// units, rounded half away from zero.
func percentOf(amount int64, ratePercent float64) int64 {
	if amount == 0 || ratePercent == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
