package osmosis

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/metrics"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

var tracer = otel.Tracer("github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/osmosis")

// BuildSwap validates req and assembles the swap message and fee without
// signing anything.
func (b *Broker) BuildSwap(ctx context.Context, req brokers.SwapRequest) (*brokers.PreparedSwap, error) {
	ctx, span := tracer.Start(ctx, "osmosis.BuildSwap")
	defer span.End()

	prepared, err := b.buildSwap(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("swap.route_kind", prepared.RouteKind.String()),
		attribute.Int("swap.hops", len(prepared.Route)),
	)
	return prepared, nil
}

func (b *Broker) buildSwap(ctx context.Context, req brokers.SwapRequest) (*brokers.PreparedSwap, error) {
	prefix, err := brokers.ValidateBech32Address(req.Sender, b.config.Bech32Prefix)
	if err != nil {
		return nil, err
	}

	snapshot, pf, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	fromDenom, err := b.nativeDenom(snapshot, req.FromSymbol)
	if err != nil {
		return nil, err
	}
	toDenom, err := b.nativeDenom(snapshot, req.ToSymbol)
	if err != nil {
		return nil, err
	}

	amountIn, err := brokers.ToMinimalAmount(req.FromAmount, fromDenom.CoinDecimals)
	if err != nil {
		return nil, err
	}
	if !amountIn.IsPositive() {
		return nil, fmt.Errorf("%w: %s %s is below one minimal unit", brokers.ErrInvalidAmount, req.FromAmount, fromDenom.CoinDenom)
	}
	expectedOut, err := brokers.ToMinimalAmount(req.ToAmount, toDenom.CoinDecimals)
	if err != nil {
		return nil, err
	}
	if !expectedOut.IsPositive() {
		return nil, fmt.Errorf("%w: %s %s is below one minimal unit", brokers.ErrInvalidAmount, req.ToAmount, toDenom.CoinDenom)
	}

	minOut, err := brokers.CalculateMinOutput(expectedOut, req.Slippage)
	if err != nil {
		return nil, err
	}

	res := pf.Resolve(req.FromSymbol, req.ToSymbol)
	if !res.Found() {
		return nil, fmt.Errorf("%w: %s -> %s", router.ErrNoRouteFound,
			marketdata.NormalizeSymbol(req.FromSymbol), marketdata.NormalizeSymbol(req.ToSymbol))
	}
	routes, err := routesFromSwapRoute(res.Route)
	if err != nil {
		return nil, err
	}

	fee, err := b.swapFee(gasForHops(len(res.Route)))
	if err != nil {
		return nil, err
	}

	tokenIn := chainclient.Coin{Denom: fromDenom.CoinMinimalDenom, Amount: amountIn}
	msg := MsgSwapExactAmountIn{
		Sender:            req.Sender,
		Routes:            routes,
		TokenIn:           tokenIn,
		TokenOutMinAmount: minOut.String(),
	}

	log.Debug().
		Str("sender", req.Sender).
		Str("tokenIn", tokenIn.Amount.String()+tokenIn.Denom).
		Str("minOut", minOut.String()+toDenom.CoinMinimalDenom).
		Str("route", res.Route.String()).
		Msg("Swap built")

	return &brokers.PreparedSwap{
		Msgs:         []chainclient.Msg{msg},
		Route:        res.Route,
		RouteKind:    res.Kind,
		TokenIn:      tokenIn,
		TokenOutMin:  chainclient.Coin{Denom: toDenom.CoinMinimalDenom, Amount: minOut},
		ExpectedOut:  chainclient.Coin{Denom: toDenom.CoinMinimalDenom, Amount: expectedOut},
		Fee:          fee,
		Memo:         req.Memo,
		SignerData:   req.Signer,
		SenderPrefix: prefix,
	}, nil
}

// nativeDenom requires symbol in both the tradable asset list and the
// denom registry.
func (b *Broker) nativeDenom(snapshot *marketdata.Snapshot, symbol string) (brokers.NativeDenom, error) {
	if _, ok := snapshot.Asset(symbol); !ok {
		return brokers.NativeDenom{}, fmt.Errorf("%w: %s is not tradable", brokers.ErrUnsupportedPair, marketdata.NormalizeSymbol(symbol))
	}
	denom, ok := b.denoms().Lookup(symbol)
	if !ok {
		return brokers.NativeDenom{}, fmt.Errorf("%w: %s has no registered denom", brokers.ErrUnsupportedPair, marketdata.NormalizeSymbol(symbol))
	}
	return denom, nil
}

// swapFee is ceil(gas * gas price) of the fee denom.
func (b *Broker) swapFee(gas uint64) (chainclient.StdFee, error) {
	price, err := sdkmath.LegacyNewDecFromStr(b.config.GasPrice.String())
	if err != nil {
		return chainclient.StdFee{}, fmt.Errorf("invalid gas price %s: %w", b.config.GasPrice, err)
	}
	amount := price.MulInt(sdkmath.NewIntFromUint64(gas)).Ceil().TruncateInt()
	return chainclient.StdFee{
		Amount: []chainclient.Coin{{Denom: b.config.FeeDenom, Amount: amount}},
		Gas:    gas,
	}, nil
}

// ExecuteSwap builds the swap, hands it to the chain client and returns as
// soon as the transaction is accepted into the mempool. Nothing is retried.
func (b *Broker) ExecuteSwap(ctx context.Context, req brokers.SwapRequest) (*brokers.SwapResult, error) {
	ctx, span := tracer.Start(ctx, "osmosis.ExecuteSwap")
	defer span.End()

	if b.chain == nil {
		return nil, brokers.ErrNoChainClient
	}

	prepared, err := b.buildSwap(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if isUserError(err) {
			metrics.SwapBroadcasts.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	hash, err := b.chain.SignAndBroadcast(ctx, req.Sender, prepared.Msgs, prepared.Fee, prepared.Memo, prepared.SignerData)
	if err != nil {
		metrics.SwapBroadcasts.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("sender", req.Sender).Str("route", prepared.Route.String()).Msg("Swap broadcast failed")
		return nil, err
	}
	metrics.SwapBroadcasts.WithLabelValues("accepted").Inc()
	span.SetAttributes(attribute.String("swap.tx_hash", hash))

	log.Info().
		Str("txHash", hash).
		Str("sender", req.Sender).
		Str("route", prepared.Route.String()).
		Msg("Swap broadcast accepted")

	return &brokers.SwapResult{
		TxHash: hash,
		Fee:    prepared.Fee,
		Route:  prepared.Route,
		Poll:   brokers.NewPollHandle(hash, b.chain),
	}, nil
}
