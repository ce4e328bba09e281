package marketdata

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Supervise waits for first to load. While loads fail it builds a fresh
// Cache from fetcher after each backoff step and hands it to install before
// it finishes loading. It returns the first cache that loaded, or the
// context error once ctx ends.
func Supervise(
	ctx context.Context,
	first *Cache,
	fetcher Fetcher,
	b backoff.BackOff,
	install func(*Cache),
) (*Cache, error) {
	current := first
	attempt := 1
	return backoff.Retry(ctx, func() (*Cache, error) {
		if current == nil {
			attempt++
			current = NewCache(ctx, fetcher)
			install(current)
			log.Info().Int("attempt", attempt).Msg("Reloading market data")
		}
		if _, err := current.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			current = nil
			return nil, err
		}
		return current, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("Market data load failed")
		}),
	)
}
