/*
This file contains helpers for rendering on-chain integer amounts in whole units.
*/

package utils

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// MaxDecimals bounds the precision accepted by FormatUnits.
const MaxDecimals = 36

var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
)

// FormatUnits renders a base-unit amount as an exact decimal string in whole units,
// e.g. 1000000000 with 6 decimals is "1000" and 1500001 is "1.500001".
// Trailing fractional zeros are dropped. Negative amounts keep their sign.
func FormatUnits(amount sdkmath.Int, decimals int) (string, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return "", fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPrecision, decimals, MaxDecimals)
	}
	if amount.IsNil() {
		return "", ErrAmountNil
	}

	digits := amount.Abs().String()
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	if decimals == 0 {
		return sign + digits, nil
	}

	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-decimals]
	frac := strings.TrimRight(digits[len(digits)-decimals:], "0")
	if frac == "" {
		return sign + whole, nil
	}
	return sign + whole + "." + frac, nil
}

// MustFormatUnits is FormatUnits for log fields; invalid input renders as the raw base-unit amount.
func MustFormatUnits(amount sdkmath.Int, decimals int) string {
	s, err := FormatUnits(amount, decimals)
	if err != nil {
		if amount.IsNil() {
			return "<nil>"
		}
		return amount.String()
	}
	return s
}
