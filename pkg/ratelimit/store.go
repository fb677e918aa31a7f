// Package ratelimit implements the sliding-window rate limiter (C2) and
// its pluggable shared storage (C1): an in-memory store for single-process
// deployments and a Redis-backed store for distributed ones.
package ratelimit

import (
	"context"
	"time"
)

// Entry is the persisted state for one composite rate-limit key.
type Entry struct {
	Key        string
	Timestamps []time.Time
	ExpiresAt  time.Time
}

// Stats summarizes store-wide activity, used by Monitor (C6) for health
// and metrics reporting.
type Stats struct {
	TotalEntries    int
	ExpiredEntries  int
	TotalRequests   int64
	LastCleanup     time.Time
	AvgLatency      time.Duration
	PerTenantCounts map[string]int
}

// Store is the shared persistence contract for rate-limit entries.
// Get, GetByPrefix and Stats have no error result: on backend failure
// they return nil or the zero value and log. Set, Remove and
// CleanupExpired return the backend error; the limiter fails open when
// Set returns one.
type Store interface {
	// Get returns the current entry for key, or nil if absent/expired.
	Get(ctx context.Context, key string) *Entry
	// Set overwrites the entry for key atomically. If entry.ExpiresAt is
	// not after now, the write is a no-op (nothing is persisted).
	Set(ctx context.Context, key string, entry Entry) error
	// Remove deletes the entry for key, if any.
	Remove(ctx context.Context, key string) error
	// GetByPrefix returns every live entry whose key starts with prefix.
	GetByPrefix(ctx context.Context, prefix string) []Entry
	// CleanupExpired bulk-removes every entry whose ExpiresAt has passed
	// and returns how many were removed.
	CleanupExpired(ctx context.Context) (int, error)
	// Stats reports store-wide counters for Monitor.
	Stats(ctx context.Context) Stats
}
