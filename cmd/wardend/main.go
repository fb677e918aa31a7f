// Command wardend wires the access-control core together: the
// permission graph, evaluator, rate limiter, audit sink, and background
// monitor. It exposes only an ambient /healthz and /metrics surface —
// the ACS business API (routing, admin endpoints) is left to an external
// transport layer, per spec §1's Non-goals.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warden-acs/warden/internal/config"
	"github.com/warden-acs/warden/internal/httpserver"
	"github.com/warden-acs/warden/internal/platform"
	"github.com/warden-acs/warden/internal/telemetry"
	"github.com/warden-acs/warden/pkg/admin"
	"github.com/warden-acs/warden/pkg/audit"
	"github.com/warden-acs/warden/pkg/evaluator"
	"github.com/warden-acs/warden/pkg/graph"
	"github.com/warden-acs/warden/pkg/monitor"
	"github.com/warden-acs/warden/pkg/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting warden", "listen", cfg.ListenAddr())

	store, err := buildRateLimitStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building rate-limit store: %w", err)
	}

	limiter := ratelimit.NewLimiter(store, logger)

	g := graph.New()
	eval := evaluator.NewDefault(g)

	sink, closeSink, err := buildAuditSink(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building audit sink: %w", err)
	}
	defer closeSink()

	adminAPI := admin.New(g, sink)

	defaultPolicy, err := cfg.DefaultPolicy()
	if err != nil {
		return fmt.Errorf("decoding default rate-limit policy: %w", err)
	}
	bootstrapDemo(ctx, logger, adminAPI, eval, limiter, toRatelimitPolicy(defaultPolicy))

	mon := monitor.New(store, logger,
		time.Duration(cfg.MonitorCleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.MonitorIntervalMinutes)*time.Minute,
	)
	go mon.Run(ctx)

	registry := telemetry.NewRegistry(append(ratelimit.Collectors(), monitor.Collectors()...)...)

	srv := httpserver.NewServer(logger, registry, mon, []string{"*"}, cfg.MetricsPath)
	httpSrv := &http.Server{Addr: cfg.ListenAddr(), Handler: srv.Router}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http surface listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func buildRateLimitStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Store, error) {
	storage := cfg.Storage()
	if storage.Kind != "distributed" {
		return ratelimit.NewMemoryStore(), nil
	}

	client, err := platform.NewRedisClient(ctx, storage.ConnectionString)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewRedisStore(client, storage.KeyPrefix, logger), nil
}

// bootstrapDemo seeds a single "default" tenant with a user, a resource,
// and a grant rule, then exercises the evaluator and the rate limiter
// once each — proving every wired component actually answers a real
// request before the ambient HTTP surface comes up.
func bootstrapDemo(ctx context.Context, logger *slog.Logger, adminAPI *admin.API, eval *evaluator.Evaluator, limiter *ratelimit.Limiter, policy ratelimit.Policy) {
	const tenantID = "default"

	user, err := adminAPI.CreateUser(ctx, tenantID, "bootstrap", "demo@warden.local")
	if err != nil {
		logger.Warn("bootstrap: create user", "error", err)
		return
	}
	resource, err := adminAPI.CreateResource(ctx, tenantID, "bootstrap", "/demo/*")
	if err != nil {
		logger.Warn("bootstrap: create resource", "error", err)
		return
	}
	verb, err := adminAPI.CreateVerb(ctx, tenantID, "bootstrap", "GET")
	if err != nil {
		logger.Warn("bootstrap: create verb", "error", err)
		return
	}
	if _, err := adminAPI.SetAccess(ctx, tenantID, "bootstrap", user.Entity, resource.ID, verb.ID, true, false); err != nil {
		logger.Warn("bootstrap: set access", "error", err)
		return
	}

	result := eval.Evaluate(tenantID, user.ID, "GET", "/demo/hello")
	logger.Info("bootstrap evaluation", "decision", result.Decision.String(), "reasons", len(result.Reasons))

	decision := limiter.Check(ctx, tenantID, fmt.Sprintf("user-%d", user.ID), policy)
	logger.Info("bootstrap rate-limit check", "allowed", decision.Allowed, "remaining", decision.Remaining)
}

func toRatelimitPolicy(p config.Policy) ratelimit.Policy {
	return ratelimit.Policy{
		Name:         p.Name,
		RequestLimit: p.RequestLimit,
		WindowSize:   time.Duration(p.WindowSizeSeconds) * time.Second,
	}
}

func buildAuditSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (audit.Sink, func(), error) {
	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if pool == nil {
		sink := audit.NewMemorySink(0)
		return sink, func() {}, nil
	}

	persister := audit.NewPostgresPersister(pool)
	sink := audit.NewBufferedSink(persister, logger)
	sink.Start(ctx)
	return sink, func() {
		sink.Close()
		pool.Close()
	}, nil
}
