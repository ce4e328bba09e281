// Package marketdata loads the exchange pool and asset feeds once and exposes
// them as an immutable Snapshot.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/metrics"
	"golang.org/x/sync/errgroup"
)

// Cache holds the market data of one exchange integration.
//
// The initializer starts in NewCache and runs exactly once. Every caller of
// Wait blocks on the same in-flight load; once it finished, Wait returns the
// stored outcome immediately. A failed load stays failed, build a new Cache
// to try again.
type Cache struct {
	done     chan struct{}
	snapshot *Snapshot
	err      error
}

// NewCache starts loading both feeds in the background.
// ctx bounds the load itself, not the lifetime of the cache.
func NewCache(ctx context.Context, fetcher Fetcher) *Cache {
	c := &Cache{done: make(chan struct{})}
	go c.load(ctx, fetcher)
	return c
}

// NewCacheFromSnapshot returns an already loaded cache.
func NewCacheFromSnapshot(s *Snapshot) *Cache {
	c := &Cache{done: make(chan struct{}), snapshot: s}
	close(c.done)
	return c
}

func (c *Cache) load(ctx context.Context, fetcher Fetcher) {
	defer close(c.done)
	start := time.Now()

	var (
		pools  []PoolEntry
		assets []CoinAsset
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := fetcher.FetchPools(gctx)
		if err != nil {
			return fmt.Errorf("fetch pools: %w", err)
		}
		pools = p
		return nil
	})
	g.Go(func() error {
		a, err := fetcher.FetchAssets(gctx)
		if err != nil {
			return fmt.Errorf("fetch assets: %w", err)
		}
		assets = a
		return nil
	})

	if err := g.Wait(); err != nil {
		c.err = fmt.Errorf("%w: %w", ErrMarketDataUnavailable, err)
		metrics.MarketDataLoads.WithLabelValues("error").Inc()
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Failed to load market data")
		return
	}

	c.snapshot = NewSnapshot(pools, assets)

	metrics.MarketDataLoads.WithLabelValues("ok").Inc()
	metrics.MarketDataLoadDuration.Observe(time.Since(start).Seconds())
	metrics.PoolCount.Set(float64(len(pools)))
	metrics.AssetCount.Set(float64(len(assets)))
	log.Info().
		Int("pools", len(pools)).
		Int("assets", len(assets)).
		Dur("duration", time.Since(start)).
		Msg("Market data loaded")
}

// Wait blocks until the initial load finished and returns its result.
// Cancelling ctx abandons the wait only, the load keeps running.
func (c *Cache) Wait(ctx context.Context) (*Snapshot, error) {
	select {
	case <-c.done:
		return c.snapshot, c.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for market data: %w", ctx.Err())
	}
}

// Done is closed once the load finished, successfully or not.
func (c *Cache) Done() <-chan struct{} {
	return c.done
}

// Ready reports whether the cache holds a usable snapshot.
func (c *Cache) Ready() bool {
	select {
	case <-c.done:
		return c.err == nil
	default:
		return false
	}
}
