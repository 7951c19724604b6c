package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-memory cache implementation.
//
// Entries are invalidated lazily: a stale entry is skipped by Get and
// replaced by the next Set for the same key. Nothing runs in the background.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	policy  Policy
	now     func() time.Time
}

type cacheEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e cacheEntry) validAt(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces the time source used to stamp and expire entries.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]cacheEntry),
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value from the cache. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.validAt(c.now()) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the given TTL, clamped by the cache policy.
// TTL<=0 and empty payloads are no-ops so a transient empty upstream
// response cannot shadow real data for a full TTL window.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || IsEmptyPayload(value) {
		return nil
	}
	if c.policy.MaxTTL > 0 && ttl > c.policy.MaxTTL {
		ttl = c.policy.MaxTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		value:    stored,
		storedAt: c.now(),
		ttl:      ttl,
	}
	c.mu.Unlock()

	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including stale ones that
// have not been overwritten yet.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Policy returns the cache policy.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
