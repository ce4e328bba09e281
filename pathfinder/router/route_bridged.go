package router

import (
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
)

// findBridgedRoute goes from -> bridge -> to, each leg through a direct pool.
// Pairs where one side is the bridge itself have no bridged form.
func (g *PoolGraph) findBridgedRoute(from, to string) Resolution {
	if from == g.bridge || to == g.bridge {
		return Resolution{Kind: RouteNone}
	}

	inbound := g.findDirectRoute(from, g.bridge)
	if !inbound.Found() {
		return Resolution{Kind: RouteNone}
	}
	outbound := g.findDirectRoute(g.bridge, to)
	if !outbound.Found() {
		return Resolution{Kind: RouteNone}
	}

	return Resolution{
		Kind:  RouteBridged,
		Route: append(inbound.Route, outbound.Route...),
		Pools: []*marketdata.PoolEntry{inbound.Pools[0], outbound.Pools[0]},
	}
}
