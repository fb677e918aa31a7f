package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	entry := Entry{Key: "t1:user-1", Timestamps: []time.Time{time.Now()}, ExpiresAt: time.Now().Add(time.Minute)}
	if err := s.Set(ctx, entry.Key, entry); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := s.Get(ctx, entry.Key)
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if len(got.Timestamps) != 1 {
		t.Fatalf("expected 1 timestamp, got %d", len(got.Timestamps))
	}
}

func TestMemoryStore_ExpiredEntryNotReturned(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	entry := Entry{Key: "t1:user-1", ExpiresAt: time.Now().Add(-time.Second)}
	_ = s.Set(ctx, entry.Key, entry) // already expired: no-op write

	if got := s.Get(ctx, entry.Key); got != nil {
		t.Fatalf("expected nil for expired/never-written entry, got %+v", got)
	}
}

func TestMemoryStore_GetByPrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "t1:a", Entry{Key: "t1:a", ExpiresAt: time.Now().Add(time.Minute)})
	_ = s.Set(ctx, "t1:b", Entry{Key: "t1:b", ExpiresAt: time.Now().Add(time.Minute)})
	_ = s.Set(ctx, "t2:a", Entry{Key: "t2:a", ExpiresAt: time.Now().Add(time.Minute)})

	got := s.GetByPrefix(ctx, "t1:")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries under t1:, got %d", len(got))
	}
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.entries["stale"] = Entry{Key: "stale", ExpiresAt: time.Now().Add(-time.Second)}
	s.entries["fresh"] = Entry{Key: "fresh", ExpiresAt: time.Now().Add(time.Minute)}

	removed, err := s.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if s.Get(ctx, "fresh") == nil {
		t.Fatal("fresh entry should survive cleanup")
	}
}

func TestMemoryStore_Remove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "t1:a", Entry{Key: "t1:a", ExpiresAt: time.Now().Add(time.Minute)})
	if err := s.Remove(ctx, "t1:a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Get(ctx, "t1:a") != nil {
		t.Fatal("expected entry gone after remove")
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "t1:a", Entry{Key: "t1:a", ExpiresAt: time.Now().Add(time.Minute)})
	_ = s.Set(ctx, "t2:a", Entry{Key: "t2:a", ExpiresAt: time.Now().Add(time.Minute)})
	s.Get(ctx, "t1:a")

	stats := s.Stats(ctx)
	if stats.TotalEntries != 2 {
		t.Fatalf("expected 2 entries, got %d", stats.TotalEntries)
	}
	if stats.PerTenantCounts["t1"] != 1 || stats.PerTenantCounts["t2"] != 1 {
		t.Fatalf("unexpected per-tenant counts: %+v", stats.PerTenantCounts)
	}
}
