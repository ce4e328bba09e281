package marketdata_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	marketdata "github.com/Cogwheel-Validator/spectra-swap/pathfinder/market_data"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"
)

type mockFetcher struct {
	fetchPools  func(ctx context.Context) ([]marketdata.PoolEntry, error)
	fetchAssets func(ctx context.Context) ([]marketdata.CoinAsset, error)
}

func (m *mockFetcher) FetchPools(ctx context.Context) ([]marketdata.PoolEntry, error) {
	return m.fetchPools(ctx)
}

func (m *mockFetcher) FetchAssets(ctx context.Context) ([]marketdata.CoinAsset, error) {
	return m.fetchAssets(ctx)
}

func pool(id string, a, b marketdata.PoolAsset) marketdata.PoolEntry {
	return marketdata.PoolEntry{PoolID: id, Assets: [2]marketdata.PoolAsset{a, b}}
}

func asset(symbol, denom string, price int64) marketdata.PoolAsset {
	return marketdata.PoolAsset{Symbol: symbol, Denom: denom, Price: decimal.NewFromInt(price)}
}

var testPools = []marketdata.PoolEntry{
	pool("1", asset("ATOM", "uatom", 10), asset("OSMO", "uosmo", 1)),
	pool("2", asset("OSMO", "uosmo", 2), asset("USDC", "uusdc", 1)),
}

var testAssets = []marketdata.CoinAsset{
	{Symbol: "OSMO", Denom: "uosmo", Decimals: 6},
	{Symbol: "ATOM", Denom: "uatom", Decimals: 6},
	{Symbol: "USDC", Denom: "uusdc", Decimals: 6},
	{Symbol: "FOO", Denom: "ufoo", Decimals: 6},
}

func TestCache_CoalescesConcurrentWaiters(t *testing.T) {
	var poolCalls, assetCalls atomic.Int32
	release := make(chan struct{})

	fetcher := &mockFetcher{
		fetchPools: func(ctx context.Context) ([]marketdata.PoolEntry, error) {
			poolCalls.Add(1)
			<-release
			return testPools, nil
		},
		fetchAssets: func(ctx context.Context) ([]marketdata.CoinAsset, error) {
			assetCalls.Add(1)
			<-release
			return testAssets, nil
		},
	}

	cache := marketdata.NewCache(context.Background(), fetcher)
	assert.False(t, cache.Ready())

	const waiters = 16
	results := make([]*marketdata.Snapshot, waiters)
	var wg sync.WaitGroup
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := cache.Wait(context.Background())
			assert.NoError(t, err)
			results[i] = s
		}()
	}

	close(release)
	wg.Wait()

	assert.Equal(t, poolCalls.Load(), int32(1))
	assert.Equal(t, assetCalls.Load(), int32(1))
	for _, s := range results {
		assert.True(t, s == results[0])
	}
	assert.True(t, cache.Ready())

	// resolved handle returns immediately and does not refetch
	s, err := cache.Wait(context.Background())
	assert.NoError(t, err)
	assert.True(t, s == results[0])
	assert.Equal(t, poolCalls.Load(), int32(1))
}

func TestCache_EitherFetchFailing(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		fetcher *mockFetcher
	}{
		{
			name: "pools fail",
			fetcher: &mockFetcher{
				fetchPools:  func(context.Context) ([]marketdata.PoolEntry, error) { return nil, boom },
				fetchAssets: func(context.Context) ([]marketdata.CoinAsset, error) { return testAssets, nil },
			},
		},
		{
			name: "assets fail",
			fetcher: &mockFetcher{
				fetchPools:  func(context.Context) ([]marketdata.PoolEntry, error) { return testPools, nil },
				fetchAssets: func(context.Context) ([]marketdata.CoinAsset, error) { return nil, boom },
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := marketdata.NewCache(context.Background(), tt.fetcher)
			s, err := cache.Wait(context.Background())
			assert.Error(t, err)
			assert.True(t, s == nil)
			assert.True(t, errors.Is(err, marketdata.ErrMarketDataUnavailable))
			assert.True(t, errors.Is(err, boom))
			assert.False(t, cache.Ready())

			// the failure sticks
			_, err = cache.Wait(context.Background())
			assert.True(t, errors.Is(err, marketdata.ErrMarketDataUnavailable))
		})
	}
}

func TestCache_WaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	fetcher := &mockFetcher{
		fetchPools: func(context.Context) ([]marketdata.PoolEntry, error) {
			<-release
			return testPools, nil
		},
		fetchAssets: func(context.Context) ([]marketdata.CoinAsset, error) { return testAssets, nil },
	}
	cache := marketdata.NewCache(context.Background(), fetcher)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := cache.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, marketdata.ErrMarketDataUnavailable))
}

func TestSnapshot_PriceTable(t *testing.T) {
	s := marketdata.NewSnapshot(testPools, testAssets)

	// OSMO is quoted by both pools, the last one wins
	price, ok := s.Price("osmo")
	assert.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(2)))

	price, ok = s.Price("ATOM")
	assert.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(10)))

	// listed but in no pool: absent, not zero
	_, ok = s.Price("FOO")
	assert.False(t, ok)

	a, ok := s.Asset(" foo ")
	assert.True(t, ok)
	assert.Equal(t, a.Denom, "ufoo")
}

func TestPoolEntry_Side(t *testing.T) {
	p := testPools[0]

	self, other, ok := p.Side("osmo")
	assert.True(t, ok)
	assert.Equal(t, self.Denom, "uosmo")
	assert.Equal(t, other.Denom, "uatom")

	_, _, ok = p.Side("USDC")
	assert.False(t, ok)
}
