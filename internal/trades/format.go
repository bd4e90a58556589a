package trades

import (
	"math/big"
	"strings"
)

// FormatUnits renders a raw integer amount as a decimal string with the given
// number of fractional digits, trimming trailing zeros. The arithmetic stays
// in integers the whole way; no floating point is involved.
//
//	FormatUnits(1500000, 6) == "1.5"
//	FormatUnits(500000, 6)  == "0.5"
//	FormatUnits(0, 6)       == "0"
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil || value.Sign() == 0 {
		return "0"
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	integer, fraction := new(big.Int).QuoRem(value, divisor, new(big.Int))

	if fraction.Sign() == 0 {
		return integer.String()
	}

	frac := strings.TrimRight(
		leftPadZeros(fraction.String(), decimals),
		"0",
	)
	return integer.String() + "." + frac
}

func leftPadZeros(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
