package marketdata

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrMarketDataUnavailable is returned when the pool or asset feed could not be loaded.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	// ErrPriceNotFound is returned when no pool quoted a price for the symbol.
	ErrPriceNotFound = errors.New("price not found")
)

// Fetcher loads the two datasets the cache is built from.
type Fetcher interface {
	FetchPools(ctx context.Context) ([]PoolEntry, error)
	FetchAssets(ctx context.Context) ([]CoinAsset, error)
}

// PoolAsset is one side of a two-asset liquidity pool.
// Symbol is already normalized with NormalizeSymbol.
type PoolAsset struct {
	Symbol    string
	Denom     string
	Fees      string          // raw feed value, e.g. "0.2%"
	FeeRate   decimal.Decimal // Fees as a fraction, informational only
	Liquidity decimal.Decimal
	Price     decimal.Decimal
}

// PoolEntry is a pool as listed by the pool feed.
type PoolEntry struct {
	PoolID string
	Assets [2]PoolAsset
}

// Side returns the asset of the pool matching symbol and the opposite asset.
func (p *PoolEntry) Side(symbol string) (self, other PoolAsset, ok bool) {
	key := NormalizeSymbol(symbol)
	switch key {
	case p.Assets[0].Symbol:
		return p.Assets[0], p.Assets[1], true
	case p.Assets[1].Symbol:
		return p.Assets[1], p.Assets[0], true
	}
	return PoolAsset{}, PoolAsset{}, false
}

// CoinAsset is a token tradable on the exchange. It may have no active pool.
type CoinAsset struct {
	Symbol        string // normalized
	DisplaySymbol string // as listed in the feed
	Denom         string
	ImageURL      string
	Decimals      uint32
}

// NormalizeSymbol is the single case folding applied to every symbol key,
// both at ingestion and at query time.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// feed wire types

type feedPoolAsset struct {
	Symbol    string          `json:"symbol"`
	Denom     string          `json:"denom"`
	Fees      feeField        `json:"fees"`
	Liquidity decimal.Decimal `json:"liquidity"`
	Price     decimal.Decimal `json:"price"`
}

type feedAssetList struct {
	Assets []feedAsset `json:"assets"`
}

type feedAsset struct {
	Symbol     string          `json:"symbol"`
	Base       string          `json:"base"`
	DenomUnits []feedDenomUnit `json:"denom_units"`
	LogoURIs   struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
	} `json:"logo_URIs"`
}

type feedDenomUnit struct {
	Denom    string `json:"denom"`
	Exponent uint32 `json:"exponent"`
}
