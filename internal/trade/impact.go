// Package trade holds price-impact policy shared by swap and confirmation views.
package trade

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Severity buckets a price impact from 0 (fine) to 4 (blocked).
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityBlocked
)

// Thresholds are percentages.
var (
	AllowedPriceImpactLow       = decimal.NewFromInt(1)
	AllowedPriceImpactMedium    = decimal.NewFromInt(3)
	AllowedPriceImpactHigh      = decimal.NewFromInt(5)
	BlockedPriceImpactNonExpert = decimal.NewFromInt(15)

	oneBip = decimal.RequireFromString("0.01")
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// WarningSeverity maps a price impact in percent to its bucket. A nil impact
// is SeverityNone.
func WarningSeverity(pct *decimal.Decimal) Severity {
	if pct == nil {
		return SeverityNone
	}
	switch p := pct.Abs(); {
	case p.GreaterThanOrEqual(BlockedPriceImpactNonExpert):
		return SeverityBlocked
	case p.GreaterThanOrEqual(AllowedPriceImpactHigh):
		return SeverityHigh
	case p.GreaterThanOrEqual(AllowedPriceImpactMedium):
		return SeverityMedium
	case p.GreaterThanOrEqual(AllowedPriceImpactLow):
		return SeverityLow
	default:
		return SeverityNone
	}
}

// Blocked reports whether a trade with this severity may not proceed.
func Blocked(s Severity, expertMode bool) bool {
	return s >= SeverityBlocked && !expertMode
}

// FormatPriceImpact renders an impact for display: "-" when unknown, "<0.01%"
// below one basis point, otherwise a negative two-decimal percentage.
func FormatPriceImpact(pct *decimal.Decimal) string {
	if pct == nil {
		return "-"
	}
	p := pct.Abs()
	if p.LessThan(oneBip) {
		return "<0.01%"
	}
	return "-" + p.StringFixed(2) + "%"
}

// ParsePercent accepts "1.5" or "1.5%".
func ParsePercent(input string) (decimal.Decimal, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(input), "%")
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid percentage %q", input)
	}
	return d, nil
}
