package brokers_test

import (
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"
	"pgregory.net/rapid"
)

func TestCalculateMinOutput(t *testing.T) {
	tests := []struct {
		name     string
		expected int64
		slippage string
		want     int64
	}{
		{"zero slippage", 1000000, "0", 1000000},
		{"half percent", 1000000, "0.5", 995000},
		{"one percent floors", 999, "1", 989},
		{"fractional result floors", 3, "50", 1},
		{"full slippage", 1000000, "100", 0},
		{"zero expected", 0, "5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := brokers.CalculateMinOutput(sdkmath.NewInt(tt.expected), decimal.RequireFromString(tt.slippage))
			assert.NoError(t, err)
			assert.Equal(t, got.Int64(), tt.want)
		})
	}
}

func TestCalculateMinOutput_Invalid(t *testing.T) {
	_, err := brokers.CalculateMinOutput(sdkmath.NewInt(100), decimal.RequireFromString("-0.1"))
	assert.True(t, errors.Is(err, brokers.ErrInvalidSlippage))

	_, err = brokers.CalculateMinOutput(sdkmath.NewInt(100), decimal.RequireFromString("100.01"))
	assert.True(t, errors.Is(err, brokers.ErrInvalidSlippage))

	_, err = brokers.CalculateMinOutput(sdkmath.NewInt(-1), decimal.Zero)
	assert.True(t, errors.Is(err, brokers.ErrInvalidAmount))
}

func TestProperty_MinOutputBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expected := sdkmath.NewInt(rapid.Int64Range(0, 1<<62).Draw(t, "expected"))
		// slippage in hundredths of a percent
		slippage := decimal.New(rapid.Int64Range(0, 10000).Draw(t, "slippage"), -2)

		got, err := brokers.CalculateMinOutput(expected, slippage)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.IsNegative() || got.GT(expected) {
			t.Fatalf("min output %s outside [0, %s]", got, expected)
		}

		// min output never drops below the exact bound minus one unit
		exact := decimal.NewFromBigInt(expected.BigInt(), 0).
			Mul(decimal.NewFromInt(100).Sub(slippage)).
			Div(decimal.NewFromInt(100))
		gotDec := decimal.NewFromBigInt(got.BigInt(), 0)
		if gotDec.GreaterThan(exact) || exact.Sub(gotDec).GreaterThanOrEqual(decimal.NewFromInt(1)) {
			t.Fatalf("min output %s is not floor(%s)", got, exact)
		}
	})
}

func TestToMinimalAmount(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint32
		want     string
	}{
		{"1.5", 6, "1500000"},
		{"0.0000019", 6, "1"},
		{"42", 0, "42"},
		{"0.1", 18, "100000000000000000"},
		{"0", 6, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := brokers.ToMinimalAmount(decimal.RequireFromString(tt.amount), tt.decimals)
			assert.NoError(t, err)
			assert.Equal(t, got.String(), tt.want)
			assert.True(t, brokers.FromMinimalAmount(got, tt.decimals).LessThanOrEqual(decimal.RequireFromString(tt.amount)))
		})
	}

	_, err := brokers.ToMinimalAmount(decimal.RequireFromString("-1"), 6)
	assert.True(t, errors.Is(err, brokers.ErrInvalidAmount))

	_, err = brokers.ToMinimalAmount(decimal.New(1, 80), 0)
	assert.True(t, errors.Is(err, brokers.ErrInvalidAmount))
}

func TestToMinimalAmount_Unbounded(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		decimals uint32
	}{
		{"huge exponent", decimal.RequireFromString("1e30000000"), 6},
		{"max exponent", decimal.RequireFromString("1e2147483600"), 6},
		{"tiny exponent", decimal.RequireFromString("1e-2147483600"), 6},
		{"shift past 256 bits", decimal.New(1, 72), 6},
		{"too many decimals", decimal.NewFromInt(1), 4_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := brokers.ToMinimalAmount(tt.amount, tt.decimals)
			assert.True(t, errors.Is(err, brokers.ErrInvalidAmount))
			assert.True(t, len(err.Error()) < 128)
		})
	}

	got, err := brokers.ToMinimalAmount(decimal.New(1, 70), 6)
	assert.NoError(t, err)
	assert.Equal(t, len(got.String()), 77)
}

func TestCalculateMinOutput_UnboundedSlippage(t *testing.T) {
	_, err := brokers.CalculateMinOutput(sdkmath.NewInt(1000), decimal.RequireFromString("1e-2147483600"))
	assert.True(t, errors.Is(err, brokers.ErrInvalidSlippage))

	_, err = brokers.CalculateMinOutput(sdkmath.NewInt(1000), decimal.RequireFromString("1e2147483600"))
	assert.True(t, errors.Is(err, brokers.ErrInvalidSlippage))
}

func TestValidateBech32Address(t *testing.T) {
	const addr = "osmo1qypqxpqpqgpsgqgzqvzqzqsrqsqsyqcyv3amrk"

	prefix, err := brokers.ValidateBech32Address(addr, "osmo")
	assert.NoError(t, err)
	assert.Equal(t, prefix, "osmo")

	_, err = brokers.ValidateBech32Address(addr, "cosmos")
	assert.True(t, errors.Is(err, brokers.ErrInvalidSender))

	_, err = brokers.ValidateBech32Address("osmo1notbech32", "osmo")
	assert.True(t, errors.Is(err, brokers.ErrInvalidSender))

	_, err = brokers.ValidateBech32Address("", "")
	assert.True(t, errors.Is(err, brokers.ErrInvalidSender))
}

func TestStaticDenomRegistry(t *testing.T) {
	reg := brokers.NewStaticDenomRegistry([]brokers.NativeDenom{
		{CoinDenom: "osmo", CoinMinimalDenom: "uosmo", CoinDecimals: 6},
		{CoinDenom: "ATOM", CoinMinimalDenom: "ibc/27394FB0", CoinDecimals: 6},
		{CoinDenom: "atom", CoinMinimalDenom: "ibc/ATOM2", CoinDecimals: 6},
	})

	d, ok := reg.Lookup(" Osmo ")
	assert.True(t, ok)
	assert.Equal(t, d.CoinMinimalDenom, "uosmo")

	d, ok = reg.Lookup("atom")
	assert.True(t, ok)
	assert.Equal(t, d.CoinMinimalDenom, "ibc/ATOM2")

	_, ok = reg.Lookup("JUNO")
	assert.False(t, ok)
}
