package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-widgets/internal/weather"
)

// DefaultCacheTTL is the freshness window used when none is configured.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	snapshot  weather.Snapshot
	fetchedAt time.Time
}

// SnapshotCache is a concurrency-safe in-memory TTL cache of weather snapshots.
// Expiry is measured from the time of Put and is never extended by reads.
type SnapshotCache struct {
	mu sync.RWMutex

	// key: weather.CacheKey of the normalized location
	data map[string]cacheEntry

	ttl time.Duration
	now func() time.Time
}

// CacheOption configures a SnapshotCache.
type CacheOption func(*SnapshotCache)

// WithClock replaces time.Now; intended for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *SnapshotCache) {
		c.now = now
	}
}

// NewSnapshotCache creates an empty cache. A ttl <= 0 falls back to DefaultCacheTTL.
func NewSnapshotCache(ttl time.Duration, opts ...CacheOption) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &SnapshotCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured freshness window.
func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// Get returns a fresh snapshot with Source set to "cache".
// Expired entries are removed.
func (c *SnapshotCache) Get(key string) (weather.Snapshot, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return weather.Snapshot{}, false
	}

	if now.Sub(entry.fetchedAt) >= c.ttl {
		c.mu.Lock()
		// Only drop it if no newer Put landed in between.
		if cur, ok := c.data[key]; ok && cur.fetchedAt.Equal(entry.fetchedAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return weather.Snapshot{}, false
	}

	snap := cloneSnapshot(entry.snapshot)
	snap.Source = weather.SourceCache
	return snap, true
}

// Put inserts or replaces the entry for key, stamping it with the current time.
func (c *SnapshotCache) Put(key string, snapshot weather.Snapshot) {
	entry := cacheEntry{
		snapshot:  cloneSnapshot(snapshot),
		fetchedAt: c.now(),
	}

	c.mu.Lock()
	c.data[key] = entry
	c.mu.Unlock()
}

// Sweep removes every entry whose age is at least the TTL and returns how many were removed.
func (c *SnapshotCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.data {
		if now.Sub(entry.fetchedAt) >= c.ttl {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, fresh or not.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// cloneSnapshot copies s so no pointer field is shared with the cache.
func cloneSnapshot(s weather.Snapshot) weather.Snapshot {
	if s.Humidity != nil {
		h := *s.Humidity
		s.Humidity = &h
	}
	return s
}
