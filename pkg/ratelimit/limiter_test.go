package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{Name: "test", RequestLimit: 3, WindowSize: 100 * time.Millisecond}
}

func TestLimiter_SlidingWindowBoundary(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), nil)
	ctx := context.Background()
	policy := testPolicy()

	for i := 0; i < 3; i++ {
		d := l.Check(ctx, "t1", "user-1", policy)
		if !d.Allowed {
			t.Fatalf("request %d: expected allowed, got blocked", i)
		}
	}

	d := l.Check(ctx, "t1", "user-1", policy)
	if d.Allowed {
		t.Fatal("4th request within window should be blocked")
	}
	if d.RetryAfter == nil {
		t.Fatal("expected RetryAfter to be set on a blocked decision")
	}

	time.Sleep(policy.WindowSize + 20*time.Millisecond)

	d = l.Check(ctx, "t1", "user-1", policy)
	if !d.Allowed {
		t.Fatal("request after window elapsed should be allowed")
	}
}

func TestLimiter_TenantIsolation(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), nil)
	ctx := context.Background()
	policy := Policy{Name: "test", RequestLimit: 1, WindowSize: time.Minute}

	d1 := l.Check(ctx, "tenant-a", "same-id", policy)
	d2 := l.Check(ctx, "tenant-b", "same-id", policy)
	if !d1.Allowed || !d2.Allowed {
		t.Fatal("same id under different tenants must not share a budget")
	}

	d3 := l.Check(ctx, "tenant-a", "same-id", policy)
	if d3.Allowed {
		t.Fatal("second request for tenant-a should exhaust its own limit")
	}
}

func TestLimiter_ResetRestoresBudget(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), nil)
	ctx := context.Background()
	policy := Policy{Name: "test", RequestLimit: 1, WindowSize: time.Minute}

	l.Check(ctx, "t1", "user-1", policy)
	blocked := l.Check(ctx, "t1", "user-1", policy)
	if blocked.Allowed {
		t.Fatal("expected limit exhausted before reset")
	}

	if err := l.Reset(ctx, "t1", "user-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	snap := l.Status(ctx, "t1", "user-1", policy)
	if snap.Count != 0 {
		t.Fatalf("expected count 0 after reset, got %d", snap.Count)
	}

	d := l.Check(ctx, "t1", "user-1", policy)
	if !d.Allowed {
		t.Fatal("expected request allowed after reset")
	}
}

func TestLimiter_StatusDoesNotMutate(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), nil)
	ctx := context.Background()
	policy := Policy{Name: "test", RequestLimit: 2, WindowSize: time.Minute}

	l.Check(ctx, "t1", "user-1", policy)
	before := l.Status(ctx, "t1", "user-1", policy)
	after := l.Status(ctx, "t1", "user-1", policy)
	if before.Count != after.Count {
		t.Fatalf("Status must not mutate state: before=%d after=%d", before.Count, after.Count)
	}
	if after.Count != 1 {
		t.Fatalf("expected count 1, got %d", after.Count)
	}
}

// erroringStore always fails Set, to exercise the fail-open path.
type erroringStore struct {
	Store
}

func (e erroringStore) Set(_ context.Context, _ string, _ Entry) error {
	return errors.New("simulated store outage")
}

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	l := NewLimiter(erroringStore{Store: NewMemoryStore()}, nil)
	ctx := context.Background()
	policy := Policy{Name: "test", RequestLimit: 1, WindowSize: time.Minute}

	// Exhaust what would be the real limit several times over; every
	// call must still be allowed since every Set fails and each decision
	// takes the fail-open path.
	for i := 0; i < 5; i++ {
		d := l.Check(ctx, "t1", "user-1", policy)
		if !d.Allowed {
			t.Fatalf("call %d: expected fail-open allow, got blocked", i)
		}
		if d.Metadata["error"] == "" {
			t.Fatalf("call %d: expected error metadata on fail-open decision", i)
		}
	}
}

func TestLimiter_BoundaryLimitOne(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), nil)
	ctx := context.Background()
	policy := Policy{Name: "test", RequestLimit: 1, WindowSize: 50 * time.Millisecond}

	d1 := l.Check(ctx, "t1", "user-1", policy)
	if !d1.Allowed {
		t.Fatal("first request under limit=1 must be allowed")
	}
	d2 := l.Check(ctx, "t1", "user-1", policy)
	if d2.Allowed {
		t.Fatal("second request under limit=1 within window must be blocked")
	}
}

func TestLimiter_ListActive(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), nil)
	ctx := context.Background()
	policy := Policy{Name: "test", RequestLimit: 5, WindowSize: time.Minute}

	l.Check(ctx, "t1", "user-1", policy)
	l.Check(ctx, "t1", "user-2", policy)

	active := l.ListActive(ctx, "t1", policy)
	if len(active) != 2 {
		t.Fatalf("expected 2 active entries, got %d", len(active))
	}
}
