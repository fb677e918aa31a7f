package evaluator

import (
	"sync"
	"time"
)

type cacheKey struct {
	tenantID    string
	principalID int
	verb        string
	uri         string
}

type cacheEntry struct {
	result    Result
	version   int64
	expiresAt time.Time
}

// memoCache memoizes (tenant, principal, verb, uri) -> Result with a short
// TTL. An entry is only a hit when both the TTL has not elapsed AND its
// recorded tenant version still matches the graph's current version —
// this implements spec §4.4's "invalidate all entries for the tenant on
// mutation" without a sweep: a stale entry is simply never returned.
type memoCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[cacheKey]cacheEntry
	now     func() time.Time
}

func newMemoCache(ttl time.Duration) *memoCache {
	return &memoCache{
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
		now:     time.Now,
	}
}

func (c *memoCache) get(key cacheKey, currentVersion int64) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if e.version != currentVersion || c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return Result{}, false
	}
	return e.result, true
}

func (c *memoCache) put(key cacheKey, version int64, result Result) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		result:    result,
		version:   version,
		expiresAt: c.now().Add(c.ttl),
	}
}
