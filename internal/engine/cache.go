package engine

import (
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/runeberg/flare/internal/rank"
)

// DefaultCacheCapacity is the default max number of cached rounds.
const DefaultCacheCapacity = 256

// resultCache memoizes finished rounds per (mode, query) for a short
// TTL. Entries are keyed by content, so serving one for a repeated
// query is always correct; weight changes invalidate the whole cache.
type resultCache struct {
	lru     *lru.Cache[string, *cacheEntry]
	ttl     time.Duration
	metrics *Counters
}

type cacheEntry struct {
	createdAt time.Time
	results   []rank.Scored
}

func newResultCache(capacity int, ttl time.Duration, metrics *Counters) *resultCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if metrics == nil {
		metrics = &Counters{}
	}
	cache, err := lru.New[string, *cacheEntry](capacity)
	if err != nil {
		// Only reachable with a non-positive size.
		cache, _ = lru.New[string, *cacheEntry](DefaultCacheCapacity)
	}
	return &resultCache{
		lru:     cache,
		ttl:     ttl,
		metrics: metrics,
	}
}

// cacheKey builds the lookup key for a round. SHA256 truncated to
// 16 hex chars keeps keys short and collision-safe in practice.
func cacheKey(mode, query string) string {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(query))
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

// Get returns a copy of the cached round, expiring stale entries.
func (c *resultCache) Get(key string) ([]rank.Scored, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		c.metrics.CacheMisses.Add(1)
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		c.lru.Remove(key)
		c.metrics.CacheMisses.Add(1)
		return nil, false
	}

	c.metrics.CacheHits.Add(1)
	out := make([]rank.Scored, len(entry.results))
	copy(out, entry.results)
	return out, true
}

// Set stores a copy of a finished round.
func (c *resultCache) Set(key string, results []rank.Scored) {
	stored := make([]rank.Scored, len(results))
	copy(stored, results)
	c.lru.Add(key, &cacheEntry{
		createdAt: time.Now(),
		results:   stored,
	})
}

// InvalidateAll clears the cache. Called when weights change, since
// every cached score depends on them.
func (c *resultCache) InvalidateAll() {
	c.lru.Purge()
}

// Len returns the number of cached rounds.
func (c *resultCache) Len() int {
	return c.lru.Len()
}
