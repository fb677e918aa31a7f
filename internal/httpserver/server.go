// Package httpserver is the module's thin ambient HTTP surface: request
// logging, CORS, and a /healthz + /metrics pair. It is explicitly NOT the
// ACS business API — routing, authorization endpoints, and request
// parsing for the core's own operations remain an external transport
// layer's responsibility (spec §1 Non-goal).
package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warden-acs/warden/pkg/monitor"
)

// Server is the demo's ambient HTTP surface.
type Server struct {
	Router    *chi.Mux
	logger    *slog.Logger
	startedAt time.Time
}

// NewServer builds a router with request-id/logging/CORS middleware and
// mounts /healthz and metricsPath.
func NewServer(logger *slog.Logger, registry *prometheus.Registry, mon *monitor.Monitor, corsOrigins []string, metricsPath string) *Server {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}))

	s := &Server{Router: r, logger: logger, startedAt: time.Now()}

	r.Get("/healthz", s.handleHealthz(mon))
	r.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return s
}

func (s *Server) handleHealthz(mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := mon.Health()

		status := http.StatusOK
		if !report.Healthy && !report.CheckedAt.IsZero() {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"healthy":          report.Healthy,
			"uptimeSeconds":    time.Since(s.startedAt).Seconds(),
			"lastCleanupAt":    report.LastCleanupAt,
			"lastCleanupCount": report.LastCleanupCount,
			"storeLatencyMs":   report.StoreLatency.Milliseconds(),
			"lastError":        report.LastError,
		})
	}
}
