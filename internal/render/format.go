package render

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FormatMoney renders amount with exactly two fractional digits, rounding
// half away from zero, prefixed by symbol.
func FormatMoney(symbol string, amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	symbol = strings.TrimSpace(symbol)
	switch utf8.RuneCountInString(symbol) {
	case 0:
		return fixed
	case 1:
		return symbol + fixed
	default:
		return symbol + " " + fixed
	}
}

// FormatDate renders t in the long US form, e.g. "March 5, 2024".
func FormatDate(t time.Time) string {
	return t.UTC().Format("January 2, 2006")
}

// TaxLabel derives the tax row label from the rate, e.g. 0.18 → "GST (18%)".
func TaxLabel(rate decimal.Decimal) string {
	return "GST (" + rate.Mul(decimal.NewFromInt(100)).String() + "%)"
}
