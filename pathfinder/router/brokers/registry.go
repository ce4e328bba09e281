package brokers

import (
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
)

// NativeDenom is the wallet side description of a coin.
type NativeDenom struct {
	CoinDenom        string `json:"coinDenom" toml:"coin_denom"`
	CoinMinimalDenom string `json:"coinMinimalDenom" toml:"coin_minimal_denom"`
	CoinDecimals     uint32 `json:"coinDecimals" toml:"coin_decimals"`
}

// DenomRegistry maps wallet coin symbols to their chain denom metadata.
type DenomRegistry interface {
	Lookup(symbol string) (NativeDenom, bool)
}

// StaticDenomRegistry is a DenomRegistry over a fixed set of coins keyed by
// normalized symbol.
type StaticDenomRegistry map[string]NativeDenom

// NewStaticDenomRegistry indexes denoms by CoinDenom. Later entries for the
// same symbol replace earlier ones.
func NewStaticDenomRegistry(denoms []NativeDenom) StaticDenomRegistry {
	r := make(StaticDenomRegistry, len(denoms))
	for _, d := range denoms {
		r[marketdata.NormalizeSymbol(d.CoinDenom)] = d
	}
	return r
}

func (r StaticDenomRegistry) Lookup(symbol string) (NativeDenom, bool) {
	d, ok := r[marketdata.NormalizeSymbol(symbol)]
	return d, ok
}
