// Package cache is the content-addressed response cache. A hit returns
// a previously computed response without vendor spend; the cache is a
// performance optimization, never a correctness dependency, so every
// failure degrades to a miss.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/careerforge/careerforge/internal/types"
)

// Entry is one cached response plus its usage metadata. HitCount is
// incremented on every hit; access it through atomic loads.
type Entry struct {
	Key       string
	Content   string
	Vector    []float64 // set for embedding entries only
	Usage     types.TokenUsage
	Model     string
	Provider  string
	ExpiresAt time.Time
	HitCount  int64
}

// Stats reports cache performance counters.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Cache wraps a ristretto store with TTL bookkeeping. It exclusively
// owns the entry map; other components see entries only as values.
type Cache struct {
	store      *ristretto.Cache[string, *Entry]
	defaultTTL time.Duration
	enabled    bool
	logger     *slog.Logger

	// index tracks expiry per key: ristretto drops expired values on
	// its own but cannot enumerate keys for sweeping or sizing.
	mu    sync.Mutex
	index map[string]time.Time

	hits   atomic.Int64
	misses atomic.Int64
	now    func() time.Time
}

// New creates a Cache. A disabled cache answers every Get with a miss
// and drops every Set.
func New(defaultTTL time.Duration, enabled bool, logger *slog.Logger) (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, *Entry]{
		NumCounters: 1e6,
		MaxCost:     1 << 28,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{
		store:      store,
		defaultTTL: defaultTTL,
		enabled:    enabled,
		logger:     logger,
		index:      make(map[string]time.Time),
		now:        time.Now,
	}, nil
}

// Enabled reports whether caching is on.
func (c *Cache) Enabled() bool { return c.enabled }

// Get returns the entry for a key, counting the hit. An entry past its
// expiry behaves as a miss even if ristretto hasn't evicted it yet.
func (c *Cache) Get(key string) (*Entry, bool) {
	if !c.enabled {
		return nil, false
	}

	entry, ok := c.store.Get(key)
	if !ok || entry == nil {
		c.misses.Add(1)
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.store.Del(key)
		c.deleteIndex(key)
		c.misses.Add(1)
		return nil, false
	}

	atomic.AddInt64(&entry.HitCount, 1)
	c.hits.Add(1)
	return entry, true
}

// Set stores an entry under key with the given TTL (default TTL when
// zero). Last writer wins, TTL included.
func (c *Cache) Set(key string, entry *Entry, ttl time.Duration) {
	if !c.enabled {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	entry.Key = key
	entry.ExpiresAt = c.now().Add(ttl)

	cost := int64(len(entry.Content) + 8*len(entry.Vector))
	if cost == 0 {
		cost = 1
	}
	c.store.SetWithTTL(key, entry, cost, ttl)
	// Ristretto applies writes asynchronously; waiting keeps the
	// read-your-write behavior callers expect from a response cache.
	c.store.Wait()

	c.mu.Lock()
	c.index[key] = entry.ExpiresAt
	c.mu.Unlock()
}

// IsCacheable filters out responses not worth caching: empty prompts or
// contents, explicit bypasses, and streaming calls (their chunks have
// already been delivered; replaying them from cache would change
// caller-visible behavior).
func (c *Cache) IsCacheable(prompt, content string, bypass, streaming bool) bool {
	if !c.enabled || bypass || streaming {
		return false
	}
	return prompt != "" && content != ""
}

// ClearExpired removes entries whose expiry is older than the given
// grace period. Expiry is already lazy on reads; sweeping reclaims the
// index and ristretto space for keys nobody reads again.
func (c *Cache) ClearExpired(olderThan time.Duration) int {
	cutoff := c.now().Add(-olderThan)

	c.mu.Lock()
	var stale []string
	for key, expires := range c.index {
		if expires.Before(cutoff) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		delete(c.index, key)
	}
	c.mu.Unlock()

	for _, key := range stale {
		c.store.Del(key)
	}
	if len(stale) > 0 {
		c.logger.Debug("swept expired cache entries", "count", len(stale))
	}
	return len(stale)
}

// WarmupQuery is one query to precompute outside the request path.
type WarmupQuery struct {
	Prompt  string
	Options KeyOptions
}

// ComputeFunc produces an entry for a warmup query, typically by
// running it through the executor.
type ComputeFunc func(ctx context.Context, q WarmupQuery) (*Entry, error)

// Warmup populates the cache for common queries that are still missing.
// Failures skip the query; warmup must never take the service down.
func (c *Cache) Warmup(ctx context.Context, queries []WarmupQuery, compute ComputeFunc) int {
	if !c.enabled {
		return 0
	}

	warmed := 0
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		key := GenerateKey(q.Prompt, q.Options)
		if _, ok := c.store.Get(key); ok {
			continue
		}

		entry, err := compute(ctx, q)
		if err != nil {
			c.logger.Warn("cache warmup query failed", "error", err)
			continue
		}
		c.Set(key, entry, 0)
		warmed++
	}
	return warmed
}

// Stats returns the cache performance counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.index)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	var rate float64
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}
	return Stats{
		Entries: entries,
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
	}
}

// Close releases the underlying store.
func (c *Cache) Close() {
	c.store.Close()
}

func (c *Cache) deleteIndex(key string) {
	c.mu.Lock()
	delete(c.index, key)
	c.mu.Unlock()
}
