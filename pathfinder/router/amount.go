package router

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Bounds on decimal inputs to price arithmetic. Anything wider needs
// big.Int work proportional to the exponent.
const (
	MaxAmountDigits   = 96
	MaxAmountExponent = 64
)

var ErrAmountOutOfRange = errors.New("amount out of range")

// CheckAmount rejects decimals with more than MaxAmountDigits significant
// digits or an exponent beyond ±MaxAmountExponent. The value is left out of
// the error.
func CheckAmount(d decimal.Decimal) error {
	if n := d.NumDigits(); n > MaxAmountDigits {
		return fmt.Errorf("%w: %d digits, at most %d", ErrAmountOutOfRange, n, MaxAmountDigits)
	}
	if exp := d.Exponent(); exp > MaxAmountExponent || exp < -MaxAmountExponent {
		return fmt.Errorf("%w: exponent %d outside ±%d", ErrAmountOutOfRange, exp, MaxAmountExponent)
	}
	return nil
}
