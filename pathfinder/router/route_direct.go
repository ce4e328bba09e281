package router

import (
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
)

// findDirectRoute looks for a single pool between from and to.
// The hop pays out the destination denom as listed inside that pool.
func (g *PoolGraph) findDirectRoute(from, to string) Resolution {
	pool, ok := g.FindPool(from, to)
	if !ok {
		return Resolution{Kind: RouteNone}
	}
	_, out, _ := pool.Side(from)
	return Resolution{
		Kind:  RouteDirect,
		Route: SwapRoute{{PoolID: pool.PoolID, TokenOutDenom: out.Denom}},
		Pools: []*marketdata.PoolEntry{pool},
	}
}
