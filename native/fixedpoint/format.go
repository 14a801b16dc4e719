package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	errEmptyAmount    = errors.New("fixedpoint: empty amount")
	errInvalidAmount  = errors.New("fixedpoint: amount is not a decimal number")
	errNegativeAmount = errors.New("fixedpoint: amount must be positive")
)

// ParseDecimal converts free-text decimal input into a raw integer at the
// given decimal base. Fractional digits beyond the base are truncated toward
// zero. Zero and negative inputs are rejected; callers treat the error as
// "no pending amount" rather than a failure.
func ParseDecimal(text string, decimals uint8) (*big.Int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errEmptyAmount
	}
	if strings.HasPrefix(trimmed, "-") {
		return nil, errNegativeAmount
	}
	intPart := trimmed
	fracPart := ""
	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		intPart = trimmed[:idx]
		fracPart = trimmed[idx+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return nil, errInvalidAmount
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > int(decimals) {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", int(decimals)-len(fracPart))
	combined := intPart + fracPart
	if !isDigits(combined) {
		return nil, errInvalidAmount
	}
	raw, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, errInvalidAmount
	}
	if raw.Sign() <= 0 {
		return nil, errNegativeAmount
	}
	return raw, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatUnits renders raw at the given decimal base with the full fractional
// part, e.g. (1500000, 6) -> "1.500000".
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return ""
	}
	negative := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	quo, rem := new(big.Int).QuoRem(abs, Pow10(decimals), new(big.Int))
	out := quo.String()
	if decimals > 0 {
		out = fmt.Sprintf("%s.%0*s", out, decimals, rem.String())
	}
	if negative {
		out = "-" + out
	}
	return out
}

// FormatAmount renders raw at the given decimal base, keeping at most
// precision fractional digits and trimming trailing zeroes.
func FormatAmount(raw *big.Int, decimals uint8, precision int) string {
	formatted := FormatUnits(raw, decimals)
	idx := strings.IndexByte(formatted, '.')
	if idx < 0 {
		return formatted
	}
	integer := formatted[:idx]
	fraction := formatted[idx+1:]
	if len(fraction) > precision {
		fraction = fraction[:precision]
	}
	fraction = strings.TrimRight(fraction, "0")
	if fraction == "" {
		return integer
	}
	return integer + "." + fraction
}

// FormatPercent renders a rational percentage with two fractional digits.
// Nil represents an unknown value and renders as the placeholder dash.
func FormatPercent(value *big.Rat) string {
	if value == nil {
		return Unknown
	}
	return value.FloatString(2) + "%"
}

// Unknown is the placeholder shown when a derived figure has no value yet.
const Unknown = "—"
