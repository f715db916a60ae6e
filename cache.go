package tripgeo

import (
	"context"
	"sync"
	"time"
)

// Freshness windows for geocoder responses.
const (
	DefaultCacheTTL   = 30 * time.Minute
	AuxiliaryCacheTTL = 5 * time.Minute
)

// ResponseCache stores raw provider responses keyed by request URL.
// Implementations must report stale entries as absent.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte)
}

type cacheEntry struct {
	value    []byte
	storedAt time.Time
}

// MemoryCache is an in-process ResponseCache with a fixed freshness window.
// Expired entries are left in place and overwritten by the next Put.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// CacheOption configures a MemoryCache.
type CacheOption func(*MemoryCache)

// WithCacheClock sets the time source used for freshness checks.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache returns an empty cache whose entries stay fresh for ttl.
func NewMemoryCache(ttl time.Duration, opts ...CacheOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key while it is still fresh.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous entry.
func (c *MemoryCache) Put(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

// Len returns the number of stored entries, stale ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the freshness window.
func (c *MemoryCache) TTL() time.Duration {
	return c.ttl
}
