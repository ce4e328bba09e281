package osmosis_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	chainclient "github.com/Cogwheel-Validator/spectra-swap/pathfinder/chain_client"
	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/osmosis"
)

const (
	sender    = "osmo1qypqxpqpqgpsgqgzqvzqzqsrqsqsyqcyv3amrk"
	atomDenom = "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"
	usdcDenom = "ibc/498A0751C798A0D9A389AA3691123DADA57DAA4FE165D5C75894505B876BA6E4"
	junoDenom = "ibc/46B44899322F3CD854D2D46DEEF881958467CDD4B3B10086DA49296BBED94BED"
)

func side(symbol, denom, price string) marketdata.PoolAsset {
	return marketdata.PoolAsset{
		Symbol: symbol,
		Denom:  denom,
		Fees:   "0.2%",
		Price:  decimal.RequireFromString(price),
	}
}

func coin(symbol, denom string) marketdata.CoinAsset {
	return marketdata.CoinAsset{Symbol: symbol, DisplaySymbol: symbol, Denom: denom, Decimals: 6}
}

var (
	testPools = []marketdata.PoolEntry{
		{PoolID: "1", Assets: [2]marketdata.PoolAsset{side("ATOM", atomDenom, "10"), side("OSMO", "uosmo", "1")}},
		{PoolID: "678", Assets: [2]marketdata.PoolAsset{side("OSMO", "uosmo", "1"), side("USDC", usdcDenom, "1")}},
		{PoolID: "497", Assets: [2]marketdata.PoolAsset{side("JUNO", junoDenom, "0.25"), side("OSMO", "uosmo", "1")}},
	}

	testAssets = []marketdata.CoinAsset{
		coin("OSMO", "uosmo"),
		coin("ATOM", atomDenom),
		coin("USDC", usdcDenom),
		coin("JUNO", junoDenom),
		coin("FOO", "ufoo"),
	}

	// JUNO is tradable but not registered
	testRegistry = brokers.NewStaticDenomRegistry([]brokers.NativeDenom{
		{CoinDenom: "OSMO", CoinMinimalDenom: "uosmo", CoinDecimals: 6},
		{CoinDenom: "ATOM", CoinMinimalDenom: atomDenom, CoinDecimals: 6},
		{CoinDenom: "USDC", CoinMinimalDenom: usdcDenom, CoinDecimals: 6},
		{CoinDenom: "FOO", CoinMinimalDenom: "ufoo", CoinDecimals: 6},
	})
)

type mockChain struct {
	broadcast func(ctx context.Context, sender string, msgs []chainclient.Msg, fee chainclient.StdFee, memo string, signer chainclient.SignerData) (string, error)
	poll      func(ctx context.Context, hash string) (*chainclient.TxReceipt, error)
}

func (m *mockChain) SignAndBroadcast(
	ctx context.Context,
	sender string,
	msgs []chainclient.Msg,
	fee chainclient.StdFee,
	memo string,
	signer chainclient.SignerData,
) (string, error) {
	return m.broadcast(ctx, sender, msgs, fee, memo, signer)
}

func (m *mockChain) PollForTransaction(ctx context.Context, hash string) (*chainclient.TxReceipt, error) {
	return m.poll(ctx, hash)
}

func newTestBroker(chain brokers.ChainClient) *osmosis.Broker {
	cache := marketdata.NewCacheFromSnapshot(marketdata.NewSnapshot(testPools, testAssets))
	return osmosis.NewBroker(cache, testRegistry, chain, osmosis.DefaultConfig())
}

func symbols(assets []marketdata.CoinAsset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Symbol
	}
	return out
}

func swapRequest(from, to, fromAmount, toAmount, slippage string) brokers.SwapRequest {
	return brokers.SwapRequest{
		Sender:     sender,
		FromSymbol: from,
		ToSymbol:   to,
		FromAmount: decimal.RequireFromString(fromAmount),
		ToAmount:   decimal.RequireFromString(toAmount),
		Slippage:   decimal.RequireFromString(slippage),
	}
}

func TestBroker_GetTargetOptions(t *testing.T) {
	b := newTestBroker(nil)
	ctx := context.Background()
	assert.True(t, b.Ready())

	all, err := b.GetTargetOptions(ctx, "")
	assert.NoError(t, err)
	assert.DeepEqual(t, symbols(all), []string{"OSMO", "ATOM", "USDC", "JUNO", "FOO"})

	juno, err := b.GetTargetOptions(ctx, "juno")
	assert.NoError(t, err)
	assert.DeepEqual(t, symbols(juno), []string{"OSMO", "ATOM", "USDC"})
}

func TestBroker_GetTokenUSDPrice(t *testing.T) {
	b := newTestBroker(nil)

	price, err := b.GetTokenUSDPrice(context.Background(), "atom")
	assert.NoError(t, err)
	assert.Equal(t, price.String(), "10")

	_, err = b.GetTokenUSDPrice(context.Background(), "FOO")
	assert.True(t, errors.Is(err, marketdata.ErrPriceNotFound))
}

func TestBroker_QuoteAndGas(t *testing.T) {
	b := newTestBroker(nil)
	ctx := context.Background()

	out, err := b.Quote(ctx, "ATOM", "USDC", decimal.NewFromInt(2))
	assert.NoError(t, err)
	assert.Equal(t, out.String(), "20")

	_, err = b.Quote(ctx, "OSMO", "FOO", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, router.ErrNoRouteFound))

	gas, err := b.EstimateGas(ctx, "ATOM", "OSMO")
	assert.NoError(t, err)
	assert.Equal(t, gas, uint64(150000))

	gas, err = b.EstimateGas(ctx, "ATOM", "USDC")
	assert.NoError(t, err)
	assert.Equal(t, gas, uint64(180000))

	_, err = b.EstimateGas(ctx, "FOO", "OSMO")
	assert.True(t, errors.Is(err, router.ErrNoRouteFound))
}

func TestBroker_BuildSwap(t *testing.T) {
	b := newTestBroker(nil)

	prepared, err := b.BuildSwap(context.Background(), swapRequest("ATOM", "USDC", "1.5", "15", "1"))
	assert.NoError(t, err)

	assert.Equal(t, prepared.RouteKind, router.RouteBridged)
	assert.Equal(t, prepared.SenderPrefix, "osmo")
	assert.Equal(t, prepared.TokenIn.Denom, atomDenom)
	assert.Equal(t, prepared.TokenIn.Amount.String(), "1500000")
	assert.Equal(t, prepared.ExpectedOut.Amount.String(), "15000000")
	assert.Equal(t, prepared.TokenOutMin.Amount.String(), "14850000")
	assert.Equal(t, prepared.TokenOutMin.Denom, usdcDenom)
	assert.Equal(t, prepared.Fee.Gas, uint64(180000))
	assert.Equal(t, prepared.Fee.Amount[0].Denom, "uosmo")
	assert.Equal(t, prepared.Fee.Amount[0].Amount.String(), "450")

	assert.Equal(t, len(prepared.Msgs), 1)
	msg, ok := prepared.Msgs[0].(osmosis.MsgSwapExactAmountIn)
	assert.True(t, ok)
	assert.Equal(t, msg.TypeURL(), "/osmosis.poolmanager.v1beta1.MsgSwapExactAmountIn")
	assert.DeepEqual(t, msg.Routes, []osmosis.SwapAmountInRoute{
		{PoolID: 1, TokenOutDenom: "uosmo"},
		{PoolID: 678, TokenOutDenom: usdcDenom},
	})

	raw, err := json.Marshal(msg)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"pool_id":"678"`))
	assert.True(t, strings.Contains(string(raw), `"token_out_min_amount":"14850000"`))
}

func TestBroker_BuildSwapSlippageBounds(t *testing.T) {
	b := newTestBroker(nil)

	exact, err := b.BuildSwap(context.Background(), swapRequest("ATOM", "OSMO", "1", "10", "0"))
	assert.NoError(t, err)
	assert.Equal(t, exact.TokenOutMin.Amount.String(), "10000000")

	floor, err := b.BuildSwap(context.Background(), swapRequest("ATOM", "OSMO", "1", "10", "100"))
	assert.NoError(t, err)
	assert.True(t, floor.TokenOutMin.Amount.IsZero())
}

func TestBroker_BuildSwapErrors(t *testing.T) {
	b := newTestBroker(nil)

	wrongPrefix := swapRequest("ATOM", "OSMO", "1", "10", "1")
	wrongPrefix.Sender = "cosmos1qypqxpqpqgpsgqgzqvzqzqsrqsqsyqcyy2wt4y"

	tests := []struct {
		name string
		req  brokers.SwapRequest
		want error
	}{
		{"wrong sender prefix", wrongPrefix, brokers.ErrInvalidSender},
		{"unregistered denom", swapRequest("JUNO", "OSMO", "1", "1", "1"), brokers.ErrUnsupportedPair},
		{"unknown asset", swapRequest("ATOM", "NOPE", "1", "1", "1"), brokers.ErrUnsupportedPair},
		{"dust input", swapRequest("ATOM", "OSMO", "0.0000001", "1", "1"), brokers.ErrInvalidAmount},
		{"negative output", swapRequest("ATOM", "OSMO", "1", "-1", "1"), brokers.ErrInvalidAmount},
		{"slippage above 100", swapRequest("ATOM", "OSMO", "1", "10", "100.5"), brokers.ErrInvalidSlippage},
		{"no route", swapRequest("FOO", "OSMO", "1", "1", "1"), router.ErrNoRouteFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.BuildSwap(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestBroker_ExecuteSwap(t *testing.T) {
	var (
		gotMsgs   []chainclient.Msg
		gotFee    chainclient.StdFee
		gotMemo   string
		gotSigner chainclient.SignerData
	)
	chain := &mockChain{
		broadcast: func(_ context.Context, s string, msgs []chainclient.Msg, fee chainclient.StdFee, memo string, signer chainclient.SignerData) (string, error) {
			assert.Equal(t, s, sender)
			gotMsgs, gotFee, gotMemo, gotSigner = msgs, fee, memo, signer
			return "HASH", nil
		},
		poll: func(_ context.Context, hash string) (*chainclient.TxReceipt, error) {
			return &chainclient.TxReceipt{TxHash: hash, Height: 99}, nil
		},
	}
	b := newTestBroker(chain)

	req := swapRequest("OSMO", "ATOM", "100", "10", "0.5")
	req.Memo = "spectra"
	req.Signer = chainclient.SignerData{AccountNumber: 5, Sequence: 8, ChainID: "osmosis-1"}

	res, err := b.ExecuteSwap(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, res.TxHash, "HASH")
	assert.Equal(t, res.Route.String(), "pool 1 -> "+atomDenom)
	assert.Equal(t, res.Fee.Amount[0].Amount.String(), "375")
	assert.Equal(t, gotFee.Gas, uint64(150000))
	assert.Equal(t, gotMemo, "spectra")
	assert.Equal(t, gotSigner.Sequence, uint64(8))
	assert.Equal(t, len(gotMsgs), 1)

	receipt, err := res.Poll.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, receipt.Height, int64(99))
}

func TestBroker_ExecuteSwapFailures(t *testing.T) {
	t.Run("no chain client", func(t *testing.T) {
		_, err := newTestBroker(nil).ExecuteSwap(context.Background(), swapRequest("OSMO", "ATOM", "1", "0.1", "1"))
		assert.True(t, errors.Is(err, brokers.ErrNoChainClient))
	})

	t.Run("broadcast rejected", func(t *testing.T) {
		chain := &mockChain{broadcast: func(context.Context, string, []chainclient.Msg, chainclient.StdFee, string, chainclient.SignerData) (string, error) {
			return "", chainclient.ErrTransactionFailed
		}}
		_, err := newTestBroker(chain).ExecuteSwap(context.Background(), swapRequest("OSMO", "ATOM", "1", "0.1", "1"))
		assert.True(t, errors.Is(err, chainclient.ErrTransactionFailed))
	})

	t.Run("confirmation failed", func(t *testing.T) {
		chain := &mockChain{
			broadcast: func(context.Context, string, []chainclient.Msg, chainclient.StdFee, string, chainclient.SignerData) (string, error) {
				return "HASH", nil
			},
			poll: func(context.Context, string) (*chainclient.TxReceipt, error) {
				return nil, chainclient.ErrConfirmationTimeout
			},
		}
		res, err := newTestBroker(chain).ExecuteSwap(context.Background(), swapRequest("OSMO", "ATOM", "1", "0.1", "1"))
		assert.NoError(t, err)
		_, err = res.Poll.Wait(context.Background())
		assert.True(t, errors.Is(err, chainclient.ErrConfirmationTimeout))
	})
}

func TestBroker_GasPriceRoundsFeeUp(t *testing.T) {
	cache := marketdata.NewCacheFromSnapshot(marketdata.NewSnapshot(testPools, testAssets))
	config := osmosis.DefaultConfig()
	config.GasPrice = decimal.RequireFromString("0.00251")
	b := osmosis.NewBroker(cache, testRegistry, nil, config)

	prepared, err := b.BuildSwap(context.Background(), swapRequest("ATOM", "OSMO", "1", "10", "1"))
	assert.NoError(t, err)
	// 150000 * 0.00251 = 376.5
	assert.Equal(t, prepared.Fee.Amount[0].Amount.String(), "377")
}

func TestBroker_SetDenomRegistry(t *testing.T) {
	b := newTestBroker(nil)

	_, err := b.BuildSwap(context.Background(), swapRequest("JUNO", "OSMO", "1", "0.25", "1"))
	assert.True(t, errors.Is(err, brokers.ErrUnsupportedPair))

	b.SetDenomRegistry(brokers.NewStaticDenomRegistry([]brokers.NativeDenom{
		{CoinDenom: "JUNO", CoinMinimalDenom: junoDenom, CoinDecimals: 6},
		{CoinDenom: "OSMO", CoinMinimalDenom: "uosmo", CoinDecimals: 6},
	}))
	prepared, err := b.BuildSwap(context.Background(), swapRequest("JUNO", "OSMO", "1", "0.25", "1"))
	assert.NoError(t, err)
	assert.Equal(t, prepared.TokenIn.Denom, junoDenom)
}

type failingFetcher struct{}

func (failingFetcher) FetchPools(context.Context) ([]marketdata.PoolEntry, error) {
	return nil, errors.New("pools feed down")
}

func (failingFetcher) FetchAssets(context.Context) ([]marketdata.CoinAsset, error) {
	return testAssets, nil
}

func TestBroker_MarketDataUnavailable(t *testing.T) {
	b := osmosis.NewBroker(marketdata.NewCache(context.Background(), failingFetcher{}), testRegistry, nil, osmosis.DefaultConfig())

	_, err := b.Quote(context.Background(), "ATOM", "OSMO", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, marketdata.ErrMarketDataUnavailable))
	assert.False(t, b.Ready())

	_, err = b.GetTargetOptions(context.Background(), "")
	assert.True(t, errors.Is(err, marketdata.ErrMarketDataUnavailable))
}

func TestBroker_SetCacheRecoversFromFailedLoad(t *testing.T) {
	ctx := context.Background()
	b := osmosis.NewBroker(marketdata.NewCache(ctx, failingFetcher{}), testRegistry, nil, osmosis.DefaultConfig())

	_, err := b.Quote(ctx, "ATOM", "OSMO", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, marketdata.ErrMarketDataUnavailable))

	b.SetCache(marketdata.NewCacheFromSnapshot(marketdata.NewSnapshot(testPools, testAssets)))
	assert.True(t, b.Ready())

	out, err := b.Quote(ctx, "ATOM", "OSMO", decimal.NewFromInt(1))
	assert.NoError(t, err)
	assert.True(t, out.Equal(decimal.NewFromInt(10)))
}
