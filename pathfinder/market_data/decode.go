package marketdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// feeField accepts the pool fee either as a string ("0.2%") or a bare number.
type feeField string

func (f *feeField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = feeField(s)
		return nil
	}
	*f = feeField(data)
	return nil
}

// parseFeeRate turns "0.2%" into 0.002. A value without a percent sign is
// taken as a fraction already.
func parseFeeRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	if pct, ok := strings.CutSuffix(raw, "%"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return decimal.Zero, err
		}
		return d.Div(decimal.NewFromInt(100)), nil
	}
	return decimal.NewFromString(raw)
}

// decodePools reads the pool feed object key by key so the resulting slice
// keeps the order in which the feed listed the pools.
func decodePools(r io.Reader) ([]PoolEntry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read pool feed: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("pool feed must be a JSON object, got %v", tok)
	}

	var pools []PoolEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read pool id: %w", err)
		}
		poolID, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected pool id token %v", keyTok)
		}

		var assets []feedPoolAsset
		if err := dec.Decode(&assets); err != nil {
			return nil, fmt.Errorf("failed to decode pool %s: %w", poolID, err)
		}

		entry, err := newPoolEntry(poolID, assets)
		if err != nil {
			log.Warn().Err(err).Str("pool_id", poolID).Msg("Skipping pool")
			continue
		}
		pools = append(pools, entry)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read end of pool feed: %w", err)
	}
	return pools, nil
}

func newPoolEntry(poolID string, assets []feedPoolAsset) (PoolEntry, error) {
	if len(assets) != 2 {
		return PoolEntry{}, fmt.Errorf("pool has %d assets, expected 2", len(assets))
	}

	entry := PoolEntry{PoolID: poolID}
	for i, a := range assets {
		symbol := NormalizeSymbol(a.Symbol)
		if symbol == "" {
			return PoolEntry{}, fmt.Errorf("asset %d has no symbol", i)
		}
		feeRate, err := parseFeeRate(string(a.Fees))
		if err != nil {
			log.Debug().Err(err).Str("pool_id", poolID).Str("fees", string(a.Fees)).Msg("Unparsable pool fee")
			feeRate = decimal.Zero
		}
		entry.Assets[i] = PoolAsset{
			Symbol:    symbol,
			Denom:     a.Denom,
			Fees:      string(a.Fees),
			FeeRate:   feeRate,
			Liquidity: a.Liquidity,
			Price:     a.Price,
		}
	}
	if entry.Assets[0].Symbol == entry.Assets[1].Symbol {
		return PoolEntry{}, fmt.Errorf("pool pairs %s with itself", entry.Assets[0].Symbol)
	}
	return entry, nil
}

func decodeAssets(data []byte) ([]CoinAsset, error) {
	var list feedAssetList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode asset list: %w", err)
	}

	assets := make([]CoinAsset, 0, len(list.Assets))
	for _, a := range list.Assets {
		asset, ok := newCoinAsset(a)
		if !ok {
			log.Debug().Str("symbol", a.Symbol).Msg("Skipping asset without symbol or denom")
			continue
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func newCoinAsset(a feedAsset) (CoinAsset, bool) {
	symbol := NormalizeSymbol(a.Symbol)
	denom := a.Base
	var decimals uint32
	if len(a.DenomUnits) > 0 {
		denom = a.DenomUnits[0].Denom
		for _, u := range a.DenomUnits {
			decimals = max(decimals, u.Exponent)
		}
	}
	if symbol == "" || denom == "" {
		return CoinAsset{}, false
	}

	image := a.LogoURIs.PNG
	if image == "" {
		image = a.LogoURIs.SVG
	}
	return CoinAsset{
		Symbol:        symbol,
		DisplaySymbol: strings.TrimSpace(a.Symbol),
		Denom:         denom,
		ImageURL:      image,
		Decimals:      decimals,
	}, true
}
