package router_test

import (
	"strconv"
	"strings"
	"testing"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	router "github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var propertySymbols = []string{"OSMO", "ATOM", "USDC", "JUNO", "STARS", "AKT", "TIA", "FOO"}

// genPools draws a random pool list over a small symbol set, with random
// casing and duplicate pairs.
func genPools(t *rapid.T) []marketdata.PoolEntry {
	n := rapid.IntRange(0, 20).Draw(t, "pools")
	pools := make([]marketdata.PoolEntry, 0, n)
	for i := range n {
		a := rapid.SampledFrom(propertySymbols).Draw(t, "a")
		b := rapid.SampledFrom(propertySymbols).Draw(t, "b")
		if a == b {
			continue
		}
		if rapid.Bool().Draw(t, "lower") {
			a = strings.ToLower(a)
		}
		pa := rapid.Int64Range(1, 1_000_000).Draw(t, "priceA")
		pb := rapid.Int64Range(1, 1_000_000).Draw(t, "priceB")
		pools = append(pools, marketdata.PoolEntry{
			PoolID: strconv.Itoa(i + 1),
			Assets: [2]marketdata.PoolAsset{
				{Symbol: marketdata.NormalizeSymbol(a), Denom: "u" + strings.ToLower(a), Price: decimal.New(pa, -3)},
				{Symbol: marketdata.NormalizeSymbol(b), Denom: "u" + strings.ToLower(b), Price: decimal.New(pb, -3)},
			},
		})
	}
	return pools
}

func buildPathfinder(t *rapid.T, pools []marketdata.PoolEntry) *router.Pathfinder {
	graph := router.NewPoolGraph("OSMO")
	if err := graph.BuildIndex(pools); err != nil {
		t.Fatalf("build index: %v", err)
	}
	return router.NewPathfinder(graph)
}

func TestProperty_FindPoolSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pools := genPools(t)
		graph := buildPathfinder(t, pools).Graph()

		a := rapid.SampledFrom(propertySymbols).Draw(t, "from")
		b := rapid.SampledFrom(propertySymbols).Draw(t, "to")

		ab, okAB := graph.FindPool(a, b)
		ba, okBA := graph.FindPool(strings.ToLower(b), a)
		if okAB != okBA || ab != ba {
			t.Fatalf("FindPool(%s,%s) and FindPool(%s,%s) differ", a, b, b, a)
		}
		if !okAB {
			return
		}

		// the first pool of the feed holding the pair is returned
		for i := range pools {
			p := &pools[i]
			_, _, hasA := p.Side(a)
			_, _, hasB := p.Side(b)
			if hasA && hasB {
				if p.PoolID != ab.PoolID {
					t.Fatalf("expected first pool %s, got %s", p.PoolID, ab.PoolID)
				}
				return
			}
		}
		t.Fatalf("pool %s not in feed", ab.PoolID)
	})
}

func TestProperty_RouteShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pf := buildPathfinder(t, genPools(t))
		graph := pf.Graph()

		from := rapid.SampledFrom(propertySymbols).Draw(t, "from")
		to := rapid.SampledFrom(propertySymbols).Draw(t, "to")

		res := pf.Resolve(from, to)
		_, direct := graph.FindPool(from, to)

		switch {
		case direct && from != to:
			if res.Kind != router.RouteDirect || len(res.Route) != 1 {
				t.Fatalf("direct pool exists but got %s route of %d hops", res.Kind, len(res.Route))
			}
		case res.Kind == router.RouteBridged:
			if len(res.Route) != 2 {
				t.Fatalf("bridged route has %d hops", len(res.Route))
			}
			bridgeSide, _, ok := res.Pools[0].Side("OSMO")
			if !ok || res.Route[0].TokenOutDenom != bridgeSide.Denom {
				t.Fatalf("first hop must pay out the bridge denom, got %s", res.Route[0].TokenOutDenom)
			}
		case res.Kind == router.RouteNone:
			if len(res.Route) != 0 {
				t.Fatalf("unresolved pair carries a route")
			}
		default:
			t.Fatalf("unexpected %s route of %d hops", res.Kind, len(res.Route))
		}
	})
}

func TestProperty_QuoteRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pf := buildPathfinder(t, genPools(t))

		from := rapid.SampledFrom(propertySymbols).Draw(t, "from")
		to := rapid.SampledFrom(propertySymbols).Draw(t, "to")
		amount := decimal.New(rapid.Int64Range(1, 1_000_000_000).Draw(t, "amount"), -6)

		out, err := pf.Quote(from, to, amount)
		if err != nil {
			return
		}
		back, err := pf.Quote(to, from, out)
		if err != nil {
			t.Fatalf("reverse quote failed: %v", err)
		}

		// fees are not deducted, only division rounding remains
		tolerance := decimal.New(1, -20)
		if back.Sub(amount).Abs().GreaterThan(tolerance) {
			t.Fatalf("round trip %s -> %s -> %s drifted: %s vs %s", from, to, from, back, amount)
		}
	})
}
