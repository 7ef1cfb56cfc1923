// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes adapter responses keyed by normalized query.
// Negative results (a source genuinely found nothing) are cached with a
// shorter TTL than positive ones, so a track released tomorrow is not
// masked for an hour. Entries are idempotent given identical inputs, so
// last-writer-wins per key is acceptable under concurrency.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/track-resolver/internal/match"
	"github.com/pdiddy/track-resolver/pkg/types"
)

type entry struct {
	results []types.PlatformResult
	expires time.Time
}

// Cache is a concurrent TTL memo for adapter responses. Safe for
// concurrent reads and inserts.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	positiveTTL time.Duration
	negativeTTL time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// New returns a cache with the given TTLs for positive and negative
// entries.
func New(cfg types.CacheConfig) *Cache {
	return &Cache{
		entries:     make(map[string]entry),
		positiveTTL: cfg.PositiveTTL,
		negativeTTL: cfg.NegativeTTL,
		now:         time.Now,
	}
}

// Key returns the cache key for one source's answer to one query.
// Every hint that shapes the outgoing request participates, so a
// widened retry round misses the cache instead of replaying the
// narrower round's answer.
func Key(source string, q types.TrackQuery) string {
	return fmt.Sprintf("%s|%s|%s|%d", source,
		match.QueryKey(q.ArtistHint, q.TitleHint),
		match.Normalize(q.AlbumHint+" "+q.GenreHint),
		q.YearHint)
}

// Get returns the cached results for a key if present and fresh. The
// ok return distinguishes a cached empty result set from a miss.
func (c *Cache) Get(key string) ([]types.PlatformResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.results, true
}

// Put stores one source's results for a key. An empty result set is a
// negative entry and expires on the shorter TTL.
func (c *Cache) Put(key string, results []types.PlatformResult) {
	ttl := c.positiveTTL
	if len(results) == 0 {
		ttl = c.negativeTTL
	}

	c.mu.Lock()
	c.entries[key] = entry{results: results, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Len reports the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
