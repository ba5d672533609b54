// Package pricing holds the pure money math for the engine. All amounts
// are fixed-point decimals; nothing here touches storage.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Total computes unitPrice * qty rounded to 2 decimal places.
func Total(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// SoldPercentage derives the percentage of an allotment that has been sold,
// rounded to 2 decimal places. An offering with initial == 0 is 0% sold.
func SoldPercentage(initial, remaining int) decimal.Decimal {
	if initial <= 0 {
		return decimal.Zero
	}

	sold := decimal.NewFromInt(int64(initial - remaining))

	return sold.Div(decimal.NewFromInt(int64(initial))).Mul(hundred).Round(2)
}
