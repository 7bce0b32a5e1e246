package domain

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in whole VND. Totals are never computed in floating point.
type Money int64

const currencySymbol = "₫"

var moneyPrinter = message.NewPrinter(language.Vietnamese)

// Format renders m with Vietnamese digit grouping, e.g. "1.000.000 ₫".
func Format(m Money) string {
	return moneyPrinter.Sprintf("%d %s", int64(m), currencySymbol)
}

// FormatOptional renders a missing amount as zero instead of failing.
func FormatOptional(m *Money) string {
	if m == nil {
		return Format(0)
	}
	return Format(*m)
}

// MoneyFromFloat converts a loosely typed amount. NaN, infinities and
// negative values become 0.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return Money(math.MaxInt64)
	}
	return Money(math.Round(f))
}

func (m Money) String() string {
	return Format(m)
}
