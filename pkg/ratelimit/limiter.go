package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// defaultLocalCacheTTL bounds how long the Limiter trusts its own
// in-process copy of a key's window before re-reading the shared Store.
// Spec §4.2 caps this at 30s so a single hot key doesn't hammer Redis,
// while keeping staleness short enough that a multi-process deployment
// still converges quickly.
const defaultLocalCacheTTL = 5 * time.Second

// Limiter implements the sliding-window algorithm (spec §4.2) over a
// pluggable Store. It is safe for concurrent use.
type Limiter struct {
	store        Store
	logger       *slog.Logger
	locks        *keyedMutex
	localCacheTTL time.Duration

	cacheMu sync.Mutex
	cache   map[string]localWindow
}

type localWindow struct {
	timestamps []time.Time
	cachedAt   time.Time
}

// NewLimiter creates a Limiter backed by store.
func NewLimiter(store Store, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:         store,
		logger:        logger,
		locks:         newKeyedMutex(),
		localCacheTTL: defaultLocalCacheTTL,
		cache:         make(map[string]localWindow),
	}
}

func compositeKey(tenantID, id string) string {
	return tenantID + ":" + id
}

// Check records one request against key (tenantID, id) under policy and
// reports whether it is allowed. On any store failure it fails open:
// the request is allowed and Decision.Metadata["error"] names the cause.
func (l *Limiter) Check(ctx context.Context, tenantID, id string, policy Policy) Decision {
	start := time.Now()
	key := compositeKey(tenantID, id)

	unlock := l.locks.lock(key)
	defer unlock()

	now := time.Now()
	windowStart := now.Add(-policy.WindowSize)

	timestamps, stale := l.loadWindow(ctx, key, now)
	timestamps = dropBefore(timestamps, windowStart)

	allowed := len(timestamps) < policy.RequestLimit
	var errMeta string
	if allowed {
		timestamps = append(timestamps, now)
	}

	expiresAt := now.Add(policy.WindowSize)
	if err := l.store.Set(ctx, key, Entry{Key: key, Timestamps: timestamps, ExpiresAt: expiresAt}); err != nil {
		errMeta = err.Error()
		l.logger.Warn("ratelimit store write failed, failing open",
			"tenant_id", tenantID, "policy", policy.Name, "error", err)
	}
	l.storeWindow(key, timestamps, now)
	_ = stale

	remaining := policy.RequestLimit - len(timestamps)
	if remaining < 0 {
		remaining = 0
	}

	resetIn := policy.WindowSize
	if len(timestamps) > 0 {
		resetIn = timestamps[0].Add(policy.WindowSize).Sub(now)
		if resetIn < 0 {
			resetIn = 0
		}
	}

	d := Decision{
		Allowed:   allowed,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
	if errMeta != "" {
		d.Allowed = true
		d.Metadata = map[string]string{"error": errMeta}
	}
	if !d.Allowed {
		retry := resetIn
		d.RetryAfter = &retry
	}

	checkDurationSeconds.WithLabelValues(policy.Name).Observe(time.Since(start).Seconds())
	remainingRequests.WithLabelValues(policy.Name).Observe(float64(d.Remaining))
	if d.Allowed {
		requestsAllowedTotal.WithLabelValues(tenantID, policy.Name).Inc()
	} else {
		requestsBlockedTotal.WithLabelValues(tenantID, policy.Name).Inc()
	}

	return d
}

// Status reports the current window state for key without mutating it.
func (l *Limiter) Status(ctx context.Context, tenantID, id string, policy Policy) Snapshot {
	key := compositeKey(tenantID, id)
	now := time.Now()
	windowStart := now.Add(-policy.WindowSize)

	timestamps, _ := l.loadWindow(ctx, key, now)
	timestamps = dropBefore(timestamps, windowStart)

	resetIn := time.Duration(0)
	if len(timestamps) > 0 {
		resetIn = timestamps[0].Add(policy.WindowSize).Sub(now)
		if resetIn < 0 {
			resetIn = 0
		}
	}

	return Snapshot{
		Key:     key,
		Count:   len(timestamps),
		Limit:   policy.RequestLimit,
		ResetIn: resetIn,
		Window:  policy.WindowSize,
	}
}

// Reset clears all recorded requests for key (tenantID, id).
func (l *Limiter) Reset(ctx context.Context, tenantID, id string) error {
	key := compositeKey(tenantID, id)
	unlock := l.locks.lock(key)
	defer unlock()

	l.cacheMu.Lock()
	delete(l.cache, key)
	l.cacheMu.Unlock()

	resetsTotal.WithLabelValues(tenantID).Inc()
	if err := l.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("resetting rate-limit key %q: %w", key, err)
	}
	return nil
}

// ListActive returns every live entry for tenantID as a Snapshot, driven
// by a caller-supplied policy for Limit/Window context (the Store itself
// has no notion of policy).
func (l *Limiter) ListActive(ctx context.Context, tenantID string, policy Policy) []Snapshot {
	entries := l.store.GetByPrefix(ctx, tenantID+":")
	now := time.Now()
	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		windowStart := now.Add(-policy.WindowSize)
		timestamps := dropBefore(e.Timestamps, windowStart)
		resetIn := time.Duration(0)
		if len(timestamps) > 0 {
			resetIn = timestamps[0].Add(policy.WindowSize).Sub(now)
			if resetIn < 0 {
				resetIn = 0
			}
		}
		out = append(out, Snapshot{
			Key:     e.Key,
			Count:   len(timestamps),
			Limit:   policy.RequestLimit,
			ResetIn: resetIn,
			Window:  policy.WindowSize,
		})
	}
	activeLimitsByTenant.WithLabelValues(tenantID).Set(float64(len(out)))
	return out
}

// loadWindow returns the best-known timestamp list for key: the local
// cache if still fresh, otherwise a re-read from the Store. The bool
// result reports whether the Store was actually consulted.
func (l *Limiter) loadWindow(ctx context.Context, key string, now time.Time) ([]time.Time, bool) {
	l.cacheMu.Lock()
	cached, ok := l.cache[key]
	l.cacheMu.Unlock()
	if ok && now.Sub(cached.cachedAt) < l.localCacheTTL {
		return cached.timestamps, false
	}

	entry := l.store.Get(ctx, key)
	if entry == nil {
		return nil, true
	}
	return entry.Timestamps, true
}

func (l *Limiter) storeWindow(key string, timestamps []time.Time, now time.Time) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.cache[key] = localWindow{timestamps: timestamps, cachedAt: now}
}

// dropBefore returns the subsequence of timestamps at or after cutoff,
// preserving order. timestamps is assumed already sorted ascending.
func dropBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && timestamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return timestamps
	}
	out := make([]time.Time, len(timestamps)-i)
	copy(out, timestamps[i:])
	return out
}
