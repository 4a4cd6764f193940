package id

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	clierr "github.com/ericvale0128/cronaswap-interfacev3/internal/errors"
)

// Plain decimal notation only: no sign, exponent or thousands separators.
var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseAmount parses a user-typed decimal into base units. It reports false for
// empty, malformed or negative input and for input more precise than decimals.
// A leading or trailing dot is accepted the way an amount field accepts it.
func ParseAmount(typed string, decimals int) (*big.Int, bool) {
	raw := strings.TrimSpace(typed)
	if raw == "" || decimals < 0 {
		return nil, false
	}
	if strings.HasPrefix(raw, ".") {
		raw = "0" + raw
	}
	raw = strings.TrimSuffix(raw, ".")
	if !decimalPattern.MatchString(raw) {
		return nil, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, false
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, false
	}
	return scaled.BigInt(), true
}

// ParseUnitsFlag is ParseAmount for command flags: failures come back as usage
// errors naming the flag.
func ParseUnitsFlag(flag, typed string, decimals int) (*big.Int, error) {
	if strings.TrimSpace(typed) == "" {
		return nil, clierr.Newf(clierr.CodeUsage, "--%s is required", flag)
	}
	n, ok := ParseAmount(typed, decimals)
	if !ok {
		return nil, clierr.Newf(clierr.CodeUsage, "--%s must be a non-negative decimal with at most %d decimals", flag, decimals)
	}
	return n, nil
}

// FormatUnits renders base units as a decimal string without trailing zeros.
func FormatUnits(baseUnits string, decimals int) string {
	n, ok := new(big.Int).SetString(strings.TrimSpace(baseUnits), 10)
	if !ok {
		return "0"
	}
	return decimal.NewFromBigInt(n, -int32(decimals)).String()
}

// FormatSignificant renders base units with at most sig significant digits,
// rounding down.
func FormatSignificant(baseUnits *big.Int, decimals int, sig int) string {
	if baseUnits == nil || baseUnits.Sign() == 0 {
		return "0"
	}
	if sig <= 0 {
		sig = 1
	}
	d := decimal.NewFromBigInt(baseUnits, -int32(decimals))
	digits := len(new(big.Int).Abs(d.Coefficient()).String())
	intDigits := digits + int(d.Exponent())
	return d.RoundDown(int32(sig - intDigits)).String()
}
