package monitor

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/warden-acs/warden/pkg/ratelimit"
)

// slowStore blocks in CleanupExpired until release is closed, letting
// tests observe overlapping-tick behavior deterministically.
type slowStore struct {
	ratelimit.Store
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (s *slowStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	select {
	case s.started <- struct{}{}:
	default:
	}
	<-s.release
	return 0, nil
}

func (s *slowStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestMonitor_CleanupTickSkipsWhilePreviousRuns(t *testing.T) {
	store := &slowStore{started: make(chan struct{}, 1), release: make(chan struct{})}
	m := New(store, discardLogger(), time.Hour, time.Hour)

	go m.runCleanupTick(context.Background())

	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatal("first cleanup tick never started")
	}

	// Second tick, while the first is still blocked in the store call,
	// must not queue behind it.
	done := make(chan struct{})
	go func() {
		m.runCleanupTick(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second tick blocked instead of skipping")
	}

	if store.callCount() != 1 {
		t.Fatalf("expected store called exactly once (second tick skipped), got %d", store.callCount())
	}

	close(store.release)
}

func TestMonitor_HealthReportsAfterTick(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	m := New(store, discardLogger(), time.Hour, time.Hour)

	m.runHealthTick(context.Background())

	report := m.Health()
	if !report.Healthy {
		t.Fatal("expected healthy report after a successful probe")
	}
	if report.CheckedAt.IsZero() {
		t.Fatal("expected CheckedAt to be populated")
	}
}

func TestMonitor_RunStopsOnContextCancel(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	m := New(store, discardLogger(), time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(doneCh)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
