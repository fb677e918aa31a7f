package monitor

import "github.com/prometheus/client_golang/prometheus"

var monitorHealthy = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "warden",
		Subsystem: "monitor",
		Name:      "healthy",
		Help:      "1 if the most recent health probe succeeded, 0 otherwise.",
	},
)

var storeLatencySeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "warden",
		Subsystem: "monitor",
		Name:      "store_latency_seconds",
		Help:      "Latency of store operations observed by the monitor's background ticks.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
)

// Collectors returns every monitor metric for registration with a
// prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		monitorHealthy,
		storeLatencySeconds,
	}
}
