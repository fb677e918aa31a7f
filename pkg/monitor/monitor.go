// Package monitor runs the background storage-cleanup and health-check
// loops that keep the rate-limit store bounded and report the module's
// operational state.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/warden-acs/warden/pkg/ratelimit"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	defaultHealthInterval  = 1 * time.Minute
)

// HealthReport is the snapshot returned by Monitor.Health.
type HealthReport struct {
	Healthy          bool
	LastCleanupAt    time.Time
	LastCleanupCount int
	StoreLatency     time.Duration
	LastError        string
	CheckedAt        time.Time
}

// Monitor periodically sweeps expired rate-limit entries and probes store
// health. Each tick kind runs under its own single-entry semaphore so an
// overrunning run is skipped rather than queued.
type Monitor struct {
	store  ratelimit.Store
	logger *slog.Logger

	cleanupInterval time.Duration
	healthInterval  time.Duration

	cleanupSem *semaphore.Weighted
	healthSem  *semaphore.Weighted

	mu     sync.Mutex
	report HealthReport
}

// New creates a Monitor over store. A zero interval falls back to the
// package default for that tick kind.
func New(store ratelimit.Store, logger *slog.Logger, cleanupInterval, healthInterval time.Duration) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	if healthInterval <= 0 {
		healthInterval = defaultHealthInterval
	}
	return &Monitor{
		store:           store,
		logger:          logger,
		cleanupInterval: cleanupInterval,
		healthInterval:  healthInterval,
		cleanupSem:      semaphore.NewWeighted(1),
		healthSem:       semaphore.NewWeighted(1),
	}
}

// Run blocks, driving the cleanup and health loops, until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("monitor started",
		"cleanup_interval", m.cleanupInterval, "health_interval", m.healthInterval)

	cleanupTicker := time.NewTicker(m.cleanupInterval)
	healthTicker := time.NewTicker(m.healthInterval)
	defer cleanupTicker.Stop()
	defer healthTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return
		case <-cleanupTicker.C:
			m.runCleanupTick(ctx)
		case <-healthTicker.C:
			m.runHealthTick(ctx)
		}
	}
}

// runCleanupTick attempts a storage-cleanup pass. If the previous pass is
// still running, the tick is skipped rather than queued.
func (m *Monitor) runCleanupTick(ctx context.Context) {
	if !m.cleanupSem.TryAcquire(1) {
		m.logger.Debug("cleanup tick skipped: previous pass still running")
		return
	}
	defer m.cleanupSem.Release(1)

	start := time.Now()
	removed, err := m.store.CleanupExpired(ctx)
	latency := time.Since(start)

	m.mu.Lock()
	m.report.LastCleanupAt = start
	m.report.LastCleanupCount = removed
	m.report.StoreLatency = latency
	if err != nil {
		m.report.LastError = err.Error()
	} else {
		m.report.LastError = ""
	}
	m.mu.Unlock()

	storeLatencySeconds.Observe(latency.Seconds())
	if err != nil {
		m.logger.Error("storage cleanup tick failed", "error", err)
		return
	}
	m.logger.Debug("storage cleanup tick complete", "removed", removed, "latency", latency)
}

// runHealthTick probes the store and updates the Healthy gauge.
func (m *Monitor) runHealthTick(ctx context.Context) {
	if !m.healthSem.TryAcquire(1) {
		m.logger.Debug("health tick skipped: previous probe still running")
		return
	}
	defer m.healthSem.Release(1)

	start := time.Now()
	stats := m.store.Stats(ctx)
	latency := time.Since(start)
	_ = stats

	healthy := ctx.Err() == nil

	m.mu.Lock()
	m.report.Healthy = healthy
	m.report.CheckedAt = start
	m.report.StoreLatency = latency
	m.mu.Unlock()

	if healthy {
		monitorHealthy.Set(1)
	} else {
		monitorHealthy.Set(0)
	}
	storeLatencySeconds.Observe(latency.Seconds())
}

// Health returns the most recent combined health snapshot.
func (m *Monitor) Health() HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}
