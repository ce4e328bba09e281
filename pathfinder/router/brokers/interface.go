// Package brokers defines the exchange contract the swap service is built on
// and the helpers shared by exchange integrations: denom registry, amount
// conversion, slippage and confirmation polling.
// For now only Osmosis implements it.
package brokers

import (
	"context"
	"errors"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupportedPair is returned when a symbol is missing from the asset list or the denom registry.
	ErrUnsupportedPair = errors.New("unsupported pair")
	// ErrInvalidAmount is returned for amounts that cannot become a positive on-chain integer.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidSlippage is returned for a slippage outside 0..100 percent.
	ErrInvalidSlippage = errors.New("invalid slippage")
	// ErrInvalidSender is returned when the sender is not an address of the exchange chain.
	ErrInvalidSender = errors.New("invalid sender")
	// ErrNoChainClient is returned by ExecuteSwap on an exchange built without a chain client.
	ErrNoChainClient = errors.New("no chain client configured")
)

// Exchange is a single DEX the service routes and executes swaps on.
type Exchange interface {
	// GetTargetOptions lists the tradable assets. With oneOf set, only the
	// assets sharing a pool with oneOf or with the bridge asset.
	GetTargetOptions(ctx context.Context, oneOf string) ([]marketdata.CoinAsset, error)

	// GetTokenUSDPrice returns the last pool-quoted price of symbol.
	GetTokenUSDPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// Quote converts a human readable amount of from into to.
	Quote(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)

	// ResolveRoute returns the hops between from and to.
	ResolveRoute(ctx context.Context, from, to string) (router.Resolution, error)

	// EstimateGas returns the gas limit of a swap between from and to.
	EstimateGas(ctx context.Context, from, to string) (uint64, error)

	// BuildSwap validates the request and assembles the unsigned swap.
	BuildSwap(ctx context.Context, req SwapRequest) (*PreparedSwap, error)

	// ExecuteSwap builds, signs and broadcasts the swap and returns once
	// the chain accepted it.
	ExecuteSwap(ctx context.Context, req SwapRequest) (*SwapResult, error)

	// Ready reports whether market data is loaded.
	Ready() bool
}

// ChainClient signs, broadcasts and confirms transactions.
type ChainClient interface {
	Poller
	SignAndBroadcast(
		ctx context.Context,
		sender string,
		msgs []chainclient.Msg,
		fee chainclient.StdFee,
		memo string,
		signer chainclient.SignerData,
	) (string, error)
}

// Poller waits for a broadcast transaction to be confirmed.
type Poller interface {
	PollForTransaction(ctx context.Context, hash string) (*chainclient.TxReceipt, error)
}

// SwapRequest is a swap of FromAmount FromSymbol for at least ToAmount ToSymbol
// minus Slippage percent. Amounts are human readable.
type SwapRequest struct {
	Sender     string
	FromSymbol string
	ToSymbol   string
	FromAmount decimal.Decimal
	ToAmount   decimal.Decimal
	Slippage   decimal.Decimal
	Memo       string
	// Signer is optional, the chain client looks the account up when zero.
	Signer chainclient.SignerData
}

// PreparedSwap is a validated swap ready to be signed.
type PreparedSwap struct {
	Msgs         []chainclient.Msg
	Route        router.SwapRoute
	RouteKind    router.RouteKind
	TokenIn      chainclient.Coin
	TokenOutMin  chainclient.Coin
	ExpectedOut  chainclient.Coin
	Fee          chainclient.StdFee
	Memo         string
	SignerData   chainclient.SignerData
	SenderPrefix string
}

// SwapResult is returned once the chain accepted the swap transaction.
type SwapResult struct {
	TxHash string
	Fee    chainclient.StdFee
	Route  router.SwapRoute
	Poll   *PollHandle
}
