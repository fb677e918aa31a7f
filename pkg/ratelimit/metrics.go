package ratelimit

import "github.com/prometheus/client_golang/prometheus"

var requestsAllowedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "warden",
		Subsystem: "ratelimit",
		Name:      "requests_allowed_total",
		Help:      "Total number of requests allowed by the rate limiter.",
	},
	[]string{"tenant_id", "policy"},
)

var requestsBlockedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "warden",
		Subsystem: "ratelimit",
		Name:      "requests_blocked_total",
		Help:      "Total number of requests blocked by the rate limiter.",
	},
	[]string{"tenant_id", "policy"},
)

var resetsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "warden",
		Subsystem: "ratelimit",
		Name:      "resets_total",
		Help:      "Total number of explicit Reset calls.",
	},
	[]string{"tenant_id"},
)

var checkDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "warden",
		Subsystem: "ratelimit",
		Name:      "check_duration_seconds",
		Help:      "Check call latency in seconds, including store round trip.",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	},
	[]string{"policy"},
)

var remainingRequests = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "warden",
		Subsystem: "ratelimit",
		Name:      "remaining_requests",
		Help:      "Remaining request budget reported by Check, by policy.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	},
	[]string{"policy"},
)

var activeLimitsByTenant = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "warden",
		Subsystem: "ratelimit",
		Name:      "active_limits",
		Help:      "Number of distinct rate-limit keys currently tracked, by tenant.",
	},
	[]string{"tenant_id"},
)

// Collectors returns every ratelimit metric for registration with a
// prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		requestsAllowedTotal,
		requestsBlockedTotal,
		resetsTotal,
		checkDurationSeconds,
		remainingRequests,
		activeLimitsByTenant,
	}
}
