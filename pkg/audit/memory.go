package audit

import (
	"context"
	"sync"
)

// MemorySink is an in-process, append-only ring buffer. It is intended for
// tests and for embedding contexts with no durable audit requirement.
type MemorySink struct {
	mu       sync.Mutex
	capacity int
	events   []Event
}

// NewMemorySink creates a MemorySink holding at most capacity events; once
// full, the oldest event is dropped to make room for the newest (the sink
// is still FIFO per tenant for anything retained).
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemorySink{capacity: capacity}
}

// Record appends event, evicting the oldest entry if at capacity.
func (s *MemorySink) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
	return nil
}

// RecordBatch appends every event in order.
func (s *MemorySink) RecordBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if err := s.Record(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// All returns a snapshot of every currently retained event, oldest first.
func (s *MemorySink) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ForTenant returns a snapshot of events recorded for tenantID, oldest first.
func (s *MemorySink) ForTenant(tenantID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out
}
