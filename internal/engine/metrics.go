// Package engine orchestrates search rounds: debounce, tool
// short-circuits, provider fan-out, ranking, caching, and the
// supersession rules that keep stale results off screen.
package engine

import (
	"sync/atomic"
)

// Counters holds atomic observability counters for the search engine.
// All fields use sync/atomic for lock-free concurrent access.
type Counters struct {
	SearchRounds     atomic.Int64 // completed search rounds (all entry points)
	ToolHits         atomic.Int64 // rounds answered by a tool short-circuit
	CacheHits        atomic.Int64 // result cache hits
	CacheMisses      atomic.Int64 // result cache misses
	ProviderTimeouts atomic.Int64 // providers dropped for missing their deadline
	ProviderFailures atomic.Int64 // providers dropped for returning an error
	Superseded       atomic.Int64 // async searches discarded by a newer keystroke
	LatencySumMs     atomic.Int64 // cumulative round latency for average calculation
}

// Snapshot returns a point-in-time copy of all counters as a string-keyed
// map. The snapshot is consistent per-field but not transactionally
// consistent across fields (acceptable for observability).
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"search_rounds":     c.SearchRounds.Load(),
		"tool_hits":         c.ToolHits.Load(),
		"cache_hits":        c.CacheHits.Load(),
		"cache_misses":      c.CacheMisses.Load(),
		"provider_timeouts": c.ProviderTimeouts.Load(),
		"provider_failures": c.ProviderFailures.Load(),
		"superseded":        c.Superseded.Load(),
		"latency_sum_ms":    c.LatencySumMs.Load(),
	}
}

// Reset zeroes all counters. Useful for test isolation and periodic
// reporting.
func (c *Counters) Reset() {
	c.SearchRounds.Store(0)
	c.ToolHits.Store(0)
	c.CacheHits.Store(0)
	c.CacheMisses.Store(0)
	c.ProviderTimeouts.Store(0)
	c.ProviderFailures.Store(0)
	c.Superseded.Store(0)
	c.LatencySumMs.Store(0)
}

// CacheHitRate returns the cache hit rate as a fraction in [0, 1].
// Returns 0 if no cache lookups have been recorded.
func (c *Counters) CacheHitRate() float64 {
	hits := c.CacheHits.Load()
	misses := c.CacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// AverageRoundLatencyMs returns the mean round latency in milliseconds.
// Returns 0 if no rounds have been recorded.
func (c *Counters) AverageRoundLatencyMs() float64 {
	rounds := c.SearchRounds.Load()
	if rounds == 0 {
		return 0
	}
	return float64(c.LatencySumMs.Load()) / float64(rounds)
}
