package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		symbol string
		amount string
		want   string
	}{
		{"Rs.", "19.98", "Rs. 19.98"},
		{"Rs.", "3.5964", "Rs. 3.60"},
		{"Rs.", "23.5764", "Rs. 23.58"},
		{"$", "0", "$0.00"},
		{"$", "0.005", "$0.01"},
		{"$", "2.345", "$2.35"},
		{"", "295", "295.00"},
		{"€", "-1.005", "€-1.01"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatMoney(tc.symbol, decimal.RequireFromString(tc.amount)), tc.amount)
	}
}

func TestFormatMoneyIdempotent(t *testing.T) {
	for _, s := range []string{"3.5964", "23.5764", "0.125", "1000000.995"} {
		once := decimal.RequireFromString(s).Round(2)
		require.Equal(t, FormatMoney("$", once), FormatMoney("$", once.Round(2)))
		require.Equal(t, FormatMoney("$", decimal.RequireFromString(s)), FormatMoney("$", once))
	}
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "March 5, 2024", FormatDate(time.Date(2024, time.March, 5, 23, 59, 0, 0, time.UTC)))
	require.Equal(t, "January 1, 2025", FormatDate(time.Date(2025, time.January, 1, 3, 0, 0, 0, time.FixedZone("X", 2*3600))))
}

func TestTaxLabel(t *testing.T) {
	require.Equal(t, "GST (18%)", TaxLabel(decimal.RequireFromString("0.18")))
	require.Equal(t, "GST (12.5%)", TaxLabel(decimal.RequireFromString("0.125")))
	require.Equal(t, "GST (0%)", TaxLabel(decimal.Zero))
}
