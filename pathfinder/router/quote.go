package router

import (
	"fmt"
	"time"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/metrics"
	"github.com/shopspring/decimal"
)

// QuotePrecision is the number of fractional digits kept when dividing prices.
const QuotePrecision = 36

// Quote converts amount of fromSymbol into toSymbol using the pool prices.
// A direct pool is used when there is one, otherwise both legs through the
// bridge are quoted in turn. Pool fees are not deducted.
func (p *Pathfinder) Quote(fromSymbol, toSymbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := CheckAmount(amount); err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return decimal.Zero, err
	}

	start := time.Now()
	out, err := p.quote(normalize(fromSymbol), normalize(toSymbol), amount)
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return decimal.Zero, err
	}
	metrics.QuoteRequests.WithLabelValues("ok").Inc()
	return out, nil
}

func (p *Pathfinder) quote(from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if from == to {
		return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrNoRouteFound, from, to)
	}

	if pool, ok := p.graph.FindPool(from, to); ok {
		return quoteThroughPool(pool, from, amount)
	}

	bridge := p.graph.Bridge()
	if from == bridge || to == bridge {
		return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrNoRouteFound, from, to)
	}

	viaBridge, err := p.quote(from, bridge, amount)
	if err != nil {
		return decimal.Zero, err
	}
	return p.quote(bridge, to, viaBridge)
}

// quoteThroughPool computes amount * fromPrice / toPrice for one pool.
func quoteThroughPool(pool *marketdata.PoolEntry, from string, amount decimal.Decimal) (decimal.Decimal, error) {
	in, out, ok := pool.Side(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: pool %s does not hold %s", ErrNoRouteFound, pool.PoolID, from)
	}
	if !in.Price.IsPositive() || !out.Price.IsPositive() ||
		CheckAmount(in.Price) != nil || CheckAmount(out.Price) != nil {
		return decimal.Zero, fmt.Errorf("%w: pool %s has no usable price for %s/%s",
			ErrNoRouteFound, pool.PoolID, in.Symbol, out.Symbol)
	}
	return amount.Mul(in.Price).DivRound(out.Price, QuotePrecision), nil
}
