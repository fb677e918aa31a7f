package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultBufferSize    = 256
	defaultFlushInterval = 2 * time.Second
	defaultFlushBatch    = 32
)

// Persister is the durable flush target for BufferedSink. Implementations
// (e.g. a Postgres-backed writer) are expected to group by tenant and
// apply their own retry/backoff policy; BufferedSink only guarantees the
// batch reaches Persister at least once it has been dequeued.
type Persister interface {
	PersistBatch(ctx context.Context, events []Event) error
}

// BufferedSink is an async, channel-buffered, batch-flushing audit writer.
// It never blocks the caller: if the internal buffer is full, the event is
// dropped and a warning is logged, matching spec §4.5/§7's "auditor
// buffers best-effort" fail-open contract for StoreUnavailable conditions.
type BufferedSink struct {
	persist       Persister
	logger        *slog.Logger
	entries       chan Event
	flushInterval time.Duration
	flushBatch    int
	wg            sync.WaitGroup
}

// NewBufferedSink creates a BufferedSink. Call Start to begin the
// background flush loop.
func NewBufferedSink(persist Persister, logger *slog.Logger) *BufferedSink {
	return &BufferedSink{
		persist:       persist,
		logger:        logger,
		entries:       make(chan Event, defaultBufferSize),
		flushInterval: defaultFlushInterval,
		flushBatch:    defaultFlushBatch,
	}
}

// Start launches the background goroutine that flushes entries to the
// Persister and returns immediately. The goroutine exits once ctx is
// cancelled (after flushing what is already buffered) or once Close has
// closed the buffer and the remainder has been flushed.
func (s *BufferedSink) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (s *BufferedSink) Close() {
	close(s.entries)
	s.wg.Wait()
}

// Record enqueues event for async writing. It never blocks; a full buffer
// drops the event and logs a warning.
func (s *BufferedSink) Record(_ context.Context, event Event) error {
	select {
	case s.entries <- event:
	default:
		s.logger.Warn("audit buffer full, dropping entry",
			"tenant", event.TenantID, "category", event.Category)
	}
	return nil
}

// RecordBatch enqueues every event, best-effort, in order.
func (s *BufferedSink) RecordBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		_ = s.Record(ctx, e)
	}
	return nil
}

func (s *BufferedSink) run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, s.flushBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-s.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= s.flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case e, ok := <-s.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *BufferedSink) flush(batch []Event) {
	toFlush := make([]Event, len(batch))
	copy(toFlush, batch)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.persist.PersistBatch(ctx, toFlush); err != nil {
		s.logger.Error("persisting audit batch", "error", err, "count", len(toFlush))
	}
}
