package router

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
)

// newPairKey orders the two normalized symbols so that (a, b) and (b, a)
// share a key.
func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

func normalize(symbol string) string {
	return marketdata.NormalizeSymbol(symbol)
}

func sortedSymbols(set map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(set))
}

// String renders the route as "pool 1 -> uosmo, pool 2 -> uusdc".
func (r SwapRoute) String() string {
	parts := make([]string, len(r))
	for i, hop := range r {
		parts[i] = fmt.Sprintf("pool %s -> %s", hop.PoolID, hop.TokenOutDenom)
	}
	return strings.Join(parts, ", ")
}
