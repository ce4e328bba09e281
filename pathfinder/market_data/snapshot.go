package marketdata

import (
	"github.com/shopspring/decimal"
)

// Snapshot is the immutable content of a loaded cache.
type Snapshot struct {
	// Pools in feed order.
	Pools []PoolEntry
	// Assets in feed order.
	Assets []CoinAsset

	assetBySymbol map[string]CoinAsset
	prices        map[string]decimal.Decimal
}

// NewSnapshot indexes the fetched pools and assets.
// For assets listed twice the first listing wins. Prices come from the pools,
// a symbol quoted by several pools keeps the last seen price.
func NewSnapshot(pools []PoolEntry, assets []CoinAsset) *Snapshot {
	s := &Snapshot{
		Pools:         pools,
		Assets:        assets,
		assetBySymbol: make(map[string]CoinAsset, len(assets)),
		prices:        make(map[string]decimal.Decimal),
	}

	for _, a := range assets {
		if _, exists := s.assetBySymbol[a.Symbol]; !exists {
			s.assetBySymbol[a.Symbol] = a
		}
	}

	for _, p := range pools {
		for _, a := range p.Assets {
			s.prices[a.Symbol] = a.Price
		}
	}
	return s
}

// Asset returns the tradable asset listed under symbol.
func (s *Snapshot) Asset(symbol string) (CoinAsset, bool) {
	a, ok := s.assetBySymbol[NormalizeSymbol(symbol)]
	return a, ok
}

// Price returns the last pool-quoted price of symbol.
func (s *Snapshot) Price(symbol string) (decimal.Decimal, bool) {
	p, ok := s.prices[NormalizeSymbol(symbol)]
	return p, ok
}
