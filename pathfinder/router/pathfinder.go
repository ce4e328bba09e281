// Package router resolves swap routes and price quotes over the pool graph.
// Routes are either a single pool or two pools joined by the bridge asset;
// longer paths are never searched.
package router

import (
	"fmt"
	"os"
	"time"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/metrics"
	"github.com/rs/zerolog"
)

var pathfinderLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	pathfinderLog = zerolog.New(out).With().Timestamp().Str("component", "pathfinder").Logger()
}

// Pathfinder answers route and quote queries for one market snapshot.
// It holds no mutable state and is safe for concurrent use.
type Pathfinder struct {
	graph *PoolGraph
}

// NewPathfinder wraps an indexed pool graph.
func NewPathfinder(graph *PoolGraph) *Pathfinder {
	return &Pathfinder{graph: graph}
}

// NewPathfinderFromSnapshot indexes the snapshot pools and returns a
// pathfinder routing through bridge.
func NewPathfinderFromSnapshot(snapshot *marketdata.Snapshot, bridge string) (*Pathfinder, error) {
	graph := NewPoolGraph(bridge)
	if err := graph.BuildIndex(snapshot.Pools); err != nil {
		return nil, fmt.Errorf("failed to build pool graph: %w", err)
	}
	pathfinderLog.Info().
		Int("pools", graph.PoolCount()).
		Int("pairs", len(graph.pairIndex)).
		Str("bridge", graph.Bridge()).
		Msg("Pool graph built")
	return NewPathfinder(graph), nil
}

// Graph exposes the underlying pool graph.
func (p *Pathfinder) Graph() *PoolGraph {
	return p.graph
}

// Resolve finds a route between two symbols.
// Priority order: 1) direct pool, 2) two pools through the bridge asset.
func (p *Pathfinder) Resolve(fromSymbol, toSymbol string) Resolution {
	from, to := normalize(fromSymbol), normalize(toSymbol)
	pathfinderLog.Debug().Str("from", from).Str("to", to).Msg("Resolving route")

	res := p.resolve(from, to)
	metrics.RouteResolutions.WithLabelValues(res.Kind.String()).Inc()

	pathfinderLog.Debug().
		Str("from", from).
		Str("to", to).
		Str("kind", res.Kind.String()).
		Str("route", res.Route.String()).
		Msg("Route resolved")
	return res
}

func (p *Pathfinder) resolve(from, to string) Resolution {
	if from == to {
		return Resolution{Kind: RouteNone}
	}
	if direct := p.graph.findDirectRoute(from, to); direct.Found() {
		return direct
	}
	return p.graph.findBridgedRoute(from, to)
}

// ResolveRoute returns the hops of the route between two symbols or
// ErrNoRouteFound.
func (p *Pathfinder) ResolveRoute(fromSymbol, toSymbol string) (SwapRoute, error) {
	res := p.Resolve(fromSymbol, toSymbol)
	if !res.Found() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoRouteFound, normalize(fromSymbol), normalize(toSymbol))
	}
	return res.Route, nil
}
