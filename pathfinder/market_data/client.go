package marketdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/metrics"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "market-data").Logger()
}

// FeedClient downloads the pool and asset feeds. Each feed has a primary URL
// and optional backups; a failing endpoint is retried with exponential
// backoff before the client fails over to the next one.
type FeedClient struct {
	httpClient     *http.Client
	pools          *endpointGroup
	assets         *endpointGroup
	failoverConfig FailoverConfig
}

// FailoverConfig controls retry and failover behavior
type FailoverConfig struct {
	// MaxRetries is the number of times to retry a failed request on the current endpoint
	MaxRetries int
	// RetryDelay is the initial delay between retries (doubles with each retry)
	RetryDelay time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// DefaultFailoverConfig returns sensible defaults for failover behavior
func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Timeout:    15 * time.Second,
	}
}

// endpointGroup is the ordered list of URLs serving one feed.
// current sticks to the last endpoint that answered.
type endpointGroup struct {
	name    string
	urls    []string
	mu      sync.RWMutex
	current int
}

func newEndpointGroup(name string, urls []string) (*endpointGroup, error) {
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			log.Warn().Str("feed", name).Str("url", u).Msg("Invalid feed URL, skipping")
			continue
		}
		valid = append(valid, u)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid %s feed url", name)
	}
	return &endpointGroup{name: name, urls: valid}, nil
}

func (g *endpointGroup) currentIndex() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

func (g *endpointGroup) setCurrent(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != i {
		log.Info().Str("feed", g.name).Str("url", g.urls[i]).Msg("Failover to endpoint")
	}
	g.current = i
}

// NewFeedClient creates a client for the given pool and asset feed URLs.
// The first URL of each list is the primary.
func NewFeedClient(poolURLs, assetURLs []string, config FailoverConfig) (*FeedClient, error) {
	pools, err := newEndpointGroup("pools", poolURLs)
	if err != nil {
		return nil, err
	}
	assets, err := newEndpointGroup("assets", assetURLs)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("pools", pools.urls[0]).
		Str("assets", assets.urls[0]).
		Int("pool_backups", len(pools.urls)-1).
		Int("asset_backups", len(assets.urls)-1).
		Msg("Feed client initialized")

	return &FeedClient{
		httpClient:     &http.Client{Timeout: config.Timeout},
		pools:          pools,
		assets:         assets,
		failoverConfig: config,
	}, nil
}

// FetchPools downloads and decodes the pool feed, keeping feed order.
func (c *FeedClient) FetchPools(ctx context.Context) ([]PoolEntry, error) {
	body, err := c.doRequestWithFailover(ctx, c.pools)
	if err != nil {
		return nil, err
	}
	return decodePools(bytes.NewReader(body))
}

// FetchAssets downloads and decodes the asset list.
func (c *FeedClient) FetchAssets(ctx context.Context) ([]CoinAsset, error) {
	body, err := c.doRequestWithFailover(ctx, c.assets)
	if err != nil {
		return nil, err
	}
	return decodeAssets(body)
}

// doRequestWithFailover walks the endpoints starting from the current one.
// Each endpoint gets MaxRetries retries before the next one is tried.
func (c *FeedClient) doRequestWithFailover(ctx context.Context, group *endpointGroup) ([]byte, error) {
	start := group.currentIndex()
	var errs []error

	for i := range group.urls {
		idx := (start + i) % len(group.urls)
		endpoint := group.urls[idx]

		body, err := c.retry(ctx, group.name, endpoint)
		if err == nil {
			group.setCurrent(idx)
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("feed", group.name).Str("url", endpoint).Msg("Feed endpoint failed")
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("%s feed: all %d endpoints failed: %w", group.name, len(group.urls), errors.Join(errs...))
}

func (c *FeedClient) retry(ctx context.Context, feed, endpoint string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.failoverConfig.RetryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	return backoff.Retry(ctx, func() ([]byte, error) {
		return c.get(ctx, feed, endpoint)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.failoverConfig.MaxRetries+1)),
	)
}

func (c *FeedClient) get(ctx context.Context, feed, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FeedRequests.WithLabelValues(feed, "error").Inc()
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		metrics.FeedRequests.WithLabelValues(feed, "error").Inc()
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		metrics.FeedRequests.WithLabelValues(feed, "http_error").Inc()
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 256))
		// client errors other than rate limiting will not go away on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	metrics.FeedRequests.WithLabelValues(feed, "ok").Inc()
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
