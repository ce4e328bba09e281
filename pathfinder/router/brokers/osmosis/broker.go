package osmosis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "osmosis-broker").Logger()
}

// Config holds the chain parameters the broker builds swaps with.
type Config struct {
	Bridge       string
	Bech32Prefix string
	FeeDenom     string
	GasPrice     decimal.Decimal
}

// DefaultConfig returns the osmosis-1 parameters.
func DefaultConfig() Config {
	return Config{
		Bridge:       DefaultBridge,
		Bech32Prefix: "osmo",
		FeeDenom:     "uosmo",
		GasPrice:     DefaultGasPrice,
	}
}

type registryBox struct {
	brokers.DenomRegistry
}

// market is one market data cache and the pathfinder built from it.
type market struct {
	cache *marketdata.Cache

	pathfinderOnce sync.Once
	pathfinder     *router.Pathfinder
	pathfinderErr  error
}

// Broker implements brokers.Exchange for Osmosis. Every read waits for the
// current market data cache, the pathfinder is built once per cache.
type Broker struct {
	market   atomic.Pointer[market]
	chain    brokers.ChainClient
	config   Config
	registry atomic.Pointer[registryBox]
}

var _ brokers.Exchange = (*Broker)(nil)

// NewBroker creates an Osmosis broker. chain may be nil for a read-only
// broker, ExecuteSwap then fails with brokers.ErrNoChainClient.
func NewBroker(
	cache *marketdata.Cache,
	registry brokers.DenomRegistry,
	chain brokers.ChainClient,
	config Config,
) *Broker {
	if config.Bridge == "" {
		config.Bridge = DefaultBridge
	}
	if config.GasPrice.IsZero() {
		config.GasPrice = DefaultGasPrice
	}
	b := &Broker{chain: chain, config: config}
	b.market.Store(&market{cache: cache})
	b.SetDenomRegistry(registry)
	return b
}

// SetCache replaces the market data cache, typically with a reload after a
// failed one. Reads started earlier finish on the old cache.
func (b *Broker) SetCache(cache *marketdata.Cache) {
	b.market.Store(&market{cache: cache})
	log.Debug().Msg("Market data cache replaced")
}

// SetDenomRegistry swaps the denom registry used by later swaps.
func (b *Broker) SetDenomRegistry(registry brokers.DenomRegistry) {
	if registry == nil {
		registry = brokers.StaticDenomRegistry{}
	}
	b.registry.Store(&registryBox{registry})
	log.Debug().Msg("Denom registry updated")
}

func (b *Broker) denoms() brokers.DenomRegistry {
	return b.registry.Load().DenomRegistry
}

// Ready reports whether the market data finished loading successfully.
func (b *Broker) Ready() bool {
	return b.market.Load().cache.Ready()
}

// load waits for market data and returns the snapshot with its pathfinder.
func (b *Broker) load(ctx context.Context) (*marketdata.Snapshot, *router.Pathfinder, error) {
	m := b.market.Load()
	snapshot, err := m.cache.Wait(ctx)
	if err != nil {
		return nil, nil, err
	}
	m.pathfinderOnce.Do(func() {
		m.pathfinder, m.pathfinderErr = router.NewPathfinderFromSnapshot(snapshot, b.config.Bridge)
	})
	if m.pathfinderErr != nil {
		return nil, nil, fmt.Errorf("%w: %w", marketdata.ErrMarketDataUnavailable, m.pathfinderErr)
	}
	return snapshot, m.pathfinder, nil
}

// GetTargetOptions lists tradable assets in feed order. With oneOf set only
// the assets sharing a pool with oneOf or with the bridge are returned.
func (b *Broker) GetTargetOptions(ctx context.Context, oneOf string) ([]marketdata.CoinAsset, error) {
	snapshot, pf, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	if marketdata.NormalizeSymbol(oneOf) == "" {
		return snapshot.Assets, nil
	}

	neighbors := make(map[string]struct{})
	for _, s := range pf.Graph().Neighbors(oneOf) {
		neighbors[s] = struct{}{}
	}
	options := make([]marketdata.CoinAsset, 0, len(neighbors))
	for _, a := range snapshot.Assets {
		if _, ok := neighbors[a.Symbol]; ok {
			options = append(options, a)
		}
	}
	return options, nil
}

// GetTokenUSDPrice returns the pool-quoted price of symbol.
func (b *Broker) GetTokenUSDPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	snapshot, _, err := b.load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	price, ok := snapshot.Price(symbol)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", marketdata.ErrPriceNotFound, marketdata.NormalizeSymbol(symbol))
	}
	return price, nil
}

// Quote converts amount of from into to.
func (b *Broker) Quote(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	_, pf, err := b.load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return pf.Quote(from, to, amount)
}

// ResolveRoute resolves the hops between from and to. A missing route is
// reported as router.ErrNoRouteFound.
func (b *Broker) ResolveRoute(ctx context.Context, from, to string) (router.Resolution, error) {
	_, pf, err := b.load(ctx)
	if err != nil {
		return router.Resolution{}, err
	}
	res := pf.Resolve(from, to)
	if !res.Found() {
		return res, fmt.Errorf("%w: %s -> %s", router.ErrNoRouteFound,
			marketdata.NormalizeSymbol(from), marketdata.NormalizeSymbol(to))
	}
	return res, nil
}

// EstimateGas returns BaseSwapGas plus ExtraHopGas for every hop past the first.
func (b *Broker) EstimateGas(ctx context.Context, from, to string) (uint64, error) {
	res, err := b.ResolveRoute(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return gasForHops(len(res.Route)), nil
}

func gasForHops(hops int) uint64 {
	if hops < 1 {
		hops = 1
	}
	return BaseSwapGas + ExtraHopGas*uint64(hops-1)
}

// isUserError reports errors caused by the request rather than the service.
func isUserError(err error) bool {
	return errors.Is(err, brokers.ErrUnsupportedPair) ||
		errors.Is(err, brokers.ErrInvalidAmount) ||
		errors.Is(err, brokers.ErrInvalidSlippage) ||
		errors.Is(err, brokers.ErrInvalidSender) ||
		errors.Is(err, router.ErrNoRouteFound) ||
		errors.Is(err, router.ErrAmountOutOfRange)
}
