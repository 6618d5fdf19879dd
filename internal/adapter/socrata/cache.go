package socrata

import (
	"context"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/couchcryptid/crime-dashboard/internal/lru"
	"github.com/couchcryptid/crime-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedFetcher wraps a Fetcher with an in-memory LRU cache whose entries
// expire after a fixed TTL.
type CachedFetcher struct {
	inner   domain.Fetcher
	cache   *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

type cacheEntry struct {
	result   domain.FetchResult
	storedAt time.Time
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.Fetcher, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	cache := lru.New[string, cacheEntry](maxEntries)
	cache.OnEvict(func(string, cacheEntry) {
		metrics.FetchCache.WithLabelValues("evicted").Inc()
	})
	return &CachedFetcher{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

// Fetch serves req from the cache when a fresh entry exists. Failed fetches
// are never cached.
func (c *CachedFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error) {
	key, err := BuildWhere(req)
	if err != nil {
		return c.inner.Fetch(ctx, req)
	}

	if e, ok := c.cache.Get(key); ok {
		if c.clock.Since(e.storedAt) < c.ttl {
			c.metrics.FetchCache.WithLabelValues("hit").Inc()
			return e.result, nil
		}
		c.cache.Remove(key)
		c.metrics.FetchCache.WithLabelValues("expired").Inc()
	} else {
		c.metrics.FetchCache.WithLabelValues("miss").Inc()
	}

	result, err := c.inner.Fetch(ctx, req)
	if err != nil {
		return result, err
	}
	c.cache.Put(key, cacheEntry{result: result, storedAt: c.clock.Now()})
	return result, nil
}
