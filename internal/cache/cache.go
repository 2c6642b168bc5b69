package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"breadshare-client/internal/observability"
)

// Cache memoizes backend responses for a bounded time-to-live. Entries are
// evicted lazily on read or by an explicit ClearExpired sweep; there is no
// background eviction.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	pending    map[string]*inflight
	defaultTTL time.Duration
}

type entry struct {
	value     any
	expiresAt time.Time
}

// inflight tracks one in-progress fetch so concurrent callers with the same
// key share a single invocation.
type inflight struct {
	done  chan struct{}
	value any
	err   error
}

// New builds a cache with the given default ttl.
func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		pending:    make(map[string]*inflight),
		defaultTTL: defaultTTL,
	}
}

// GenerateKey derives a cache key from a call-site identity and its
// arguments. Identical argument values produce identical keys regardless of
// map key ordering: arguments are canonicalized through a decode/encode
// round-trip, which sorts object keys.
func GenerateKey(identity string, args any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return identity + "?" + fmt.Sprintf("%v", args)
	}
	var canonical any
	if err := json.Unmarshal(raw, &canonical); err != nil {
		return identity + "?" + string(raw)
	}
	sorted, err := json.Marshal(canonical)
	if err != nil {
		return identity + "?" + string(raw)
	}
	return identity + "?" + string(sorted)
}

// Get returns the stored value when it is still fresh. A stale entry is
// evicted and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(key)
}

func (c *Cache) lookupLocked(key string) (any, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set unconditionally overwrites the entry. ttl <= 0 falls back to the
// cache's default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, value, ttl)
}

func (c *Cache) storeLocked(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Do returns the cached value for key or invokes fn, caching a successful
// result. Concurrent calls with an identical key share one in-flight
// invocation; every waiter receives the settled result. Errors are shared
// with waiters but never cached.
func (c *Cache) Do(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if value, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		observability.IncCacheHit()
		return value, nil
	}
	if flight, ok := c.pending[key]; ok {
		c.mu.Unlock()
		select {
		case <-flight.done:
			// record the join only once the flight settles; a failed
			// flight served nobody a cached value
			if flight.err == nil {
				observability.IncCacheHit()
			} else {
				observability.IncCacheMiss()
			}
			return flight.value, flight.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	flight := &inflight{done: make(chan struct{})}
	c.pending[key] = flight
	c.mu.Unlock()

	observability.IncCacheMiss()
	value, err := fn(ctx)

	c.mu.Lock()
	delete(c.pending, key)
	if err == nil {
		c.storeLocked(key, value, ttl)
	}
	flight.value, flight.err = value, err
	close(flight.done)
	c.mu.Unlock()

	return value, err
}

// ClearByPrefix removes every entry whose key starts with prefix. Used to
// invalidate a class of cached calls on logout or after a mutation.
func (c *Cache) ClearByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// ClearExpired sweeps stale entries.
func (c *Cache) ClearExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of stored entries, stale or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
