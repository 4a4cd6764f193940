package trade

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func pct(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestWarningSeverityBuckets(t *testing.T) {
	cases := map[string]Severity{
		"0":     SeverityNone,
		"0.99":  SeverityNone,
		"1":     SeverityLow,
		"2.99":  SeverityLow,
		"3":     SeverityMedium,
		"5":     SeverityHigh,
		"14.99": SeverityHigh,
		"15":    SeverityBlocked,
		"-20":   SeverityBlocked,
	}
	for in, want := range cases {
		require.Equal(t, want, WarningSeverity(pct(in)), in)
	}
	require.Equal(t, SeverityNone, WarningSeverity(nil))
}

func TestBlocked(t *testing.T) {
	require.True(t, Blocked(SeverityBlocked, false))
	require.False(t, Blocked(SeverityBlocked, true))
	require.False(t, Blocked(SeverityHigh, false))
}

func TestFormatPriceImpact(t *testing.T) {
	require.Equal(t, "-", FormatPriceImpact(nil))
	require.Equal(t, "<0.01%", FormatPriceImpact(pct("0.001")))
	require.Equal(t, "-1.23%", FormatPriceImpact(pct("1.2345")))
	require.Equal(t, "-15.00%", FormatPriceImpact(pct("15")))
}

func TestParsePercent(t *testing.T) {
	d, err := ParsePercent(" 2.5% ")
	require.NoError(t, err)
	require.True(t, d.Equal(decimal.RequireFromString("2.5")))

	_, err = ParsePercent("lots")
	require.Error(t, err)
}
