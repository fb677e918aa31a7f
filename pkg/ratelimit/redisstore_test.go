package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "acs:ratelimit:", nil)
}

func TestRedisStore_SetGetRoundTrip(t *testing.T) {
	s := newTestRedisStore(t)
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

func TestRedisStore_ExpiredEntryNotReturned(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	entry := Entry{Key: "t1:user-1", ExpiresAt: time.Now().Add(-time.Second)}
	_ = s.Set(ctx, entry.Key, entry)

	if got := s.Get(ctx, entry.Key); got != nil {
		t.Fatalf("expected nil for never-written expired entry, got %+v", got)
	}
}

func TestRedisStore_GetByPrefix(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "t1:a", Entry{Key: "t1:a", ExpiresAt: time.Now().Add(time.Minute)})
	_ = s.Set(ctx, "t1:b", Entry{Key: "t1:b", ExpiresAt: time.Now().Add(time.Minute)})
	_ = s.Set(ctx, "t2:a", Entry{Key: "t2:a", ExpiresAt: time.Now().Add(time.Minute)})

	got := s.GetByPrefix(ctx, "t1:")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries under t1:, got %d", len(got))
	}
}

func TestRedisStore_CleanupExpired(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "t1:a", Entry{Key: "t1:a", ExpiresAt: time.Now().Add(10 * time.Millisecond)})
	_ = s.Set(ctx, "t1:b", Entry{Key: "t1:b", ExpiresAt: time.Now().Add(time.Minute)})

	time.Sleep(20 * time.Millisecond)

	removed, err := s.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if s.Get(ctx, "t1:b") == nil {
		t.Fatal("fresh entry should survive cleanup")
	}
}

func TestRedisStore_Remove(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "t1:a", Entry{Key: "t1:a", ExpiresAt: time.Now().Add(time.Minute)})
	if err := s.Remove(ctx, "t1:a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Get(ctx, "t1:a") != nil {
		t.Fatal("expected entry gone after remove")
	}
}

// TestLimiter_ParityWithMemoryStore proves the sliding-window algorithm
// produces the same Allow/Block sequence whichever Store backs it.
func TestLimiter_ParityWithMemoryStore(t *testing.T) {
	policy := Policy{Name: "parity", RequestLimit: 2, WindowSize: 200 * time.Millisecond}

	memLimiter := NewLimiter(NewMemoryStore(), nil)
	redisLimiter := NewLimiter(newTestRedisStore(t), nil)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		memDecision := memLimiter.Check(ctx, "t1", "user-1", policy)
		redisDecision := redisLimiter.Check(ctx, "t1", "user-1", policy)
		if memDecision.Allowed != redisDecision.Allowed {
			t.Fatalf("call %d: memory allowed=%v, redis allowed=%v", i, memDecision.Allowed, redisDecision.Allowed)
		}
	}
}
