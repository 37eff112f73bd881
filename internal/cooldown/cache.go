// Package cooldown holds TTL-expiring backoff flags shared across workers.
// A rate-limited upstream call arms a flag; concurrent callers consult it
// and short-circuit instead of piling on with their own retries.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Cache is a shared, TTL-expiring flag store.
type Cache interface {
	Arm(ctx context.Context, key string, ttl time.Duration) error
	Active(ctx context.Context, key string) (bool, error)
}

// MemoryCache is a process-local Cache for tests and single-node setups.
type MemoryCache struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
	clock     func() time.Time
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		deadlines: make(map[string]time.Time),
		clock:     time.Now,
	}
}

// NewMemoryCacheWithClock constructs a cache with an injected clock for tests.
func NewMemoryCacheWithClock(clock func() time.Time) *MemoryCache {
	return &MemoryCache{
		deadlines: make(map[string]time.Time),
		clock:     clock,
	}
}

// Arm sets the flag for the given TTL.
func (c *MemoryCache) Arm(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines[key] = c.clock().Add(ttl)
	return nil
}

// Active reports whether the flag is armed and unexpired.
func (c *MemoryCache) Active(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline, ok := c.deadlines[key]
	if !ok {
		return false, nil
	}
	if c.clock().After(deadline) {
		delete(c.deadlines, key)
		return false, nil
	}
	return true, nil
}
