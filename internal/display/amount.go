package display

import (
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// TokenDecimals is the fixed-point scale of every token amount on the
// staking contract.
const TokenDecimals = 18

// ParseAmount converts a decimal string such as "1.5" into base units at
// 18 decimals. The value must be positive and carry at most 18 fractional
// digits.
func ParseAmount(text string) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	dec, err := sdkmath.LegacyNewDecFromStr(text)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if !dec.IsPositive() {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	return dec.BigInt(), nil
}

// FormatAmount renders base units as a decimal string with trailing zeros
// trimmed. No precision is lost.
func FormatAmount(units *big.Int) string {
	if units == nil {
		return "0"
	}
	out := sdkmath.LegacyNewDecFromBigIntWithPrec(units, TokenDecimals).String()
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimSuffix(out, ".")
	}
	if out == "" || out == "-" {
		return "0"
	}
	return out
}
