package cache

import (
	"context"
	"sync"
	"time"
)

// staleRetention is how long an expired entry stays readable via GetStale
// before the janitor drops it.
const staleRetention = 24 * time.Hour

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is the in-process response cache backend. Expired entries
// remain readable as stale fallbacks until the retention window closes.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) GetFresh(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) GetStale(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
}

// Purge drops entries expired past the stale retention window. Called
// periodically from the janitor goroutine.
func (c *MemoryCache) Purge() int {
	cutoff := c.now().Add(-staleRetention)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if e.expiresAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
