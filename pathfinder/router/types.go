package router

import (
	"errors"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
)

// ErrNoRouteFound is returned when neither a direct pool nor a path through
// the bridge asset connects two tokens.
var ErrNoRouteFound = errors.New("no route found")

// Hop is one pool the swap message sends the funds through.
type Hop struct {
	PoolID        string `json:"pool_id"`
	TokenOutDenom string `json:"token_out_denom"`
}

// SwapRoute is an ordered list of one or two hops.
type SwapRoute []Hop

// RouteKind tells how a pair was resolved.
type RouteKind int

const (
	RouteNone RouteKind = iota
	RouteDirect
	RouteBridged
)

func (k RouteKind) String() string {
	switch k {
	case RouteDirect:
		return "direct"
	case RouteBridged:
		return "bridged"
	default:
		return "none"
	}
}

// Resolution is the outcome of resolving a pair. Pools holds the pool of
// every hop, in hop order.
type Resolution struct {
	Kind  RouteKind
	Route SwapRoute
	Pools []*marketdata.PoolEntry
}

// Found reports whether a route exists.
func (r Resolution) Found() bool {
	return r.Kind != RouteNone
}

// PoolGraph indexes the pool list by unordered symbol pair.
type PoolGraph struct {
	bridge    string
	pools     []marketdata.PoolEntry
	pairIndex map[pairKey]*marketdata.PoolEntry // first pool in feed order per pair
	adjacency map[string]map[string]struct{}    // symbol -> symbols sharing a pool
}

// pairKey is an unordered pair of normalized symbols, a <= b.
type pairKey struct {
	a, b string
}
