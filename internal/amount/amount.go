package amount

import (
	"fmt"
	"math/big"
	"strings"
)

// Quantities move through the system as unsigned integers denominated in the
// asset's smallest unit. Human-readable forms appear only at the edges
// (configuration, logs), and conversion never invents or discards value.

// ParseQuantity parses a base-unit quantity: a plain non-negative decimal
// integer with no sign, point or exponent.
func ParseQuantity(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("quantity cannot be empty")
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("invalid quantity %q: want an unsigned decimal integer", s)
	}
	q, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid quantity %q: want a decimal integer in base units", s)
	}
	return q, nil
}

// ToBaseUnits converts a human-readable amount to base units,
// e.g. "1.5" with 18 decimals -> 1500000000000000000.
//
// Negative amounts are rejected, and so are fractional digits beyond the
// asset's precision: truncating them would silently drop value.
func ToBaseUnits(s string, decimals int) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("amount %q must not be negative", s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid amount format: %s", s)
	}
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount format: %s", s)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}
	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	return result, nil
}

// FromBaseUnits converts base units to a human-readable amount,
// e.g. 1500000000000000000 with 18 decimals -> "1.5".
func FromBaseUnits(quantity *big.Int, decimals int) string {
	if quantity == nil {
		return "0"
	}

	str := quantity.String()
	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}
	if len(str) <= decimals {
		str = strings.Repeat("0", decimals-len(str)+1) + str
	}

	split := len(str) - decimals
	whole := str[:split]
	frac := strings.TrimRight(str[split:], "0")

	result := whole
	if frac != "" {
		result += "." + frac
	}
	if negative {
		result = "-" + result
	}
	return result
}
