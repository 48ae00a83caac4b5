package packing

import (
	"math/big"
	"strings"
)

// FormatUnits renders a raw token amount as a decimal string with the
// provided number of decimals. The result always carries at least one
// fractional digit, so 1000 with 3 decimals renders as "1.0".
func FormatUnits(amount *big.Int, decimals uint8) string {
	digits := amount.String()

	if pad := int(decimals) + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}

	split := len(digits) - int(decimals)
	whole, frac := digits[:split], digits[split:]

	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}

	return whole + "." + frac
}
