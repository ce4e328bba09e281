package router

import (
	"fmt"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
)

// NewPoolGraph creates an empty graph routed through the given bridge symbol.
func NewPoolGraph(bridge string) *PoolGraph {
	return &PoolGraph{
		bridge:    normalize(bridge),
		pairIndex: make(map[pairKey]*marketdata.PoolEntry),
		adjacency: make(map[string]map[string]struct{}),
	}
}

// BuildIndex indexes the pools in feed order. When several pools connect
// the same pair only the first one is reachable through FindPool.
func (g *PoolGraph) BuildIndex(pools []marketdata.PoolEntry) error {
	if g.bridge == "" {
		return fmt.Errorf("bridge symbol is required")
	}

	g.pools = pools
	for i := range g.pools {
		p := &g.pools[i]
		a, b := p.Assets[0].Symbol, p.Assets[1].Symbol
		if a == "" || b == "" || a == b {
			continue
		}

		key := newPairKey(a, b)
		if _, exists := g.pairIndex[key]; !exists {
			g.pairIndex[key] = p
		}
		g.addEdge(a, b)
		g.addEdge(b, a)
	}
	return nil
}

func (g *PoolGraph) addEdge(from, to string) {
	if g.adjacency[from] == nil {
		g.adjacency[from] = make(map[string]struct{})
	}
	g.adjacency[from][to] = struct{}{}
}
