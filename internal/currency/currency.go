// Package currency formats dollar amounts for display.
package currency

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Code is the ISO currency every amount is reported in.
const Code = money.USD

// New converts a float amount to Money, rounding to cents.
func New(amount float64) *money.Money {
	return FromDecimal(decimal.NewFromFloat(amount))
}

// FromDecimal converts a decimal amount to Money, rounding to cents.
func FromDecimal(amount decimal.Decimal) *money.Money {
	cur := money.GetCurrency(Code)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), Code)
}

// Format renders amount with cents, e.g. "$1,053,333.33".
func Format(amount float64) string {
	return New(amount).Display()
}

// FormatDecimal renders a decimal amount with cents.
func FormatDecimal(amount decimal.Decimal) string {
	return FromDecimal(amount).Display()
}

// Whole renders amount rounded to the dollar, e.g. "$459,000".
func Whole(amount float64) string {
	s := New(decimal.NewFromFloat(amount).Round(0).InexactFloat64()).Display()
	return strings.TrimSuffix(s, ".00")
}
