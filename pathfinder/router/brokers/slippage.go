package brokers

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/btcsuite/btcutil/bech32"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
)

var hundred = decimal.NewFromInt(100)

const (
	maxIntDigits     = 78
	maxDenomDecimals = 30
)

// CalculateMinOutput calculates minimum output with slippage tolerance.
// slippagePercent is a percentage between 0 and 100 (e.g. 0.5 = 0.5%)
// minOutput = floor(expected * (100 - slippagePercent) / 100)
func CalculateMinOutput(expectedOutput sdkmath.Int, slippagePercent decimal.Decimal) (sdkmath.Int, error) {
	if err := router.CheckAmount(slippagePercent); err != nil {
		return sdkmath.Int{}, fmt.Errorf("%w: %w", ErrInvalidSlippage, err)
	}
	if slippagePercent.IsNegative() || slippagePercent.GreaterThan(hundred) {
		return sdkmath.Int{}, fmt.Errorf("%w: %s%% is outside 0..100", ErrInvalidSlippage, slippagePercent)
	}
	if expectedOutput.IsNil() || expectedOutput.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: expected output must not be negative", ErrInvalidAmount)
	}

	expected := decimal.NewFromBigInt(expectedOutput.BigInt(), 0)
	// shifting by -2 divides by 100 exactly
	minOutput := expected.Mul(hundred.Sub(slippagePercent)).Shift(-2).Floor()
	return sdkmath.NewIntFromBigInt(minOutput.BigInt()), nil
}

// ToMinimalAmount converts a human readable amount into minimal denom units,
// truncating fractions of the smallest unit.
func ToMinimalAmount(amount decimal.Decimal, decimals uint32) (sdkmath.Int, error) {
	if amount.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: amount is negative", ErrInvalidAmount)
	}
	if decimals > maxDenomDecimals {
		return sdkmath.Int{}, fmt.Errorf("%w: %d decimals", ErrInvalidAmount, decimals)
	}
	// integer digits after the shift, 2^256 has 78
	if amount.NumDigits()+int(amount.Exponent())+int(decimals) > maxIntDigits {
		return sdkmath.Int{}, fmt.Errorf("%w: amount overflows 256 bits", ErrInvalidAmount)
	}
	if amount.Exponent() < -router.MaxAmountExponent {
		return sdkmath.Int{}, fmt.Errorf("%w: amount has too many fractional digits", ErrInvalidAmount)
	}
	minimal := amount.Shift(int32(decimals)).Truncate(0).BigInt()
	if minimal.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.Int{}, fmt.Errorf("%w: amount overflows 256 bits", ErrInvalidAmount)
	}
	return sdkmath.NewIntFromBigInt(minimal), nil
}

// FromMinimalAmount converts minimal denom units back to a human readable amount.
func FromMinimalAmount(amount sdkmath.Int, decimals uint32) decimal.Decimal {
	return decimal.NewFromBigInt(amount.BigInt(), -int32(decimals))
}

// ValidateBech32Address checks that address is valid bech32 and, when
// expectedPrefix is set, that it carries that human readable part.
func ValidateBech32Address(address, expectedPrefix string) (string, error) {
	prefix, _, err := bech32.Decode(address)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidSender, address, err)
	}
	if expectedPrefix != "" && prefix != expectedPrefix {
		return prefix, fmt.Errorf("%w: prefix %q, expected %q", ErrInvalidSender, prefix, expectedPrefix)
	}
	return prefix, nil
}
