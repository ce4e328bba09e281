package router

import (
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
)

// FindPool returns the first pool, in feed order, pairing the two symbols.
// Matching ignores case and argument order.
func (g *PoolGraph) FindPool(symbolA, symbolB string) (*marketdata.PoolEntry, bool) {
	a, b := normalize(symbolA), normalize(symbolB)
	if a == b {
		return nil, false
	}
	p, ok := g.pairIndex[newPairKey(a, b)]
	return p, ok
}

// Neighbors lists, sorted, the symbols sharing a pool with symbol or with the
// bridge asset. symbol itself is never part of the result.
func (g *PoolGraph) Neighbors(symbol string) []string {
	key := normalize(symbol)
	set := make(map[string]struct{})
	for s := range g.adjacency[key] {
		set[s] = struct{}{}
	}
	for s := range g.adjacency[g.bridge] {
		set[s] = struct{}{}
	}
	delete(set, key)
	return sortedSymbols(set)
}

// Bridge returns the normalized bridge symbol.
func (g *PoolGraph) Bridge() string {
	return g.bridge
}

// PoolCount returns the number of pools indexed, parallel pools included.
func (g *PoolGraph) PoolCount() int {
	return len(g.pools)
}
