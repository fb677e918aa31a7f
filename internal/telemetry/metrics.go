package telemetry

import "github.com/prometheus/client_golang/prometheus"

// EvaluationsTotal counts Evaluator.Evaluate calls by their resulting
// decision, tagged by tenant.
var EvaluationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "warden",
		Subsystem: "evaluator",
		Name:      "evaluations_total",
		Help:      "Total number of permission evaluations, by tenant and decision.",
	},
	[]string{"tenant_id", "decision"},
)

// EvaluationDuration tracks Evaluate call latency, separated by whether
// the memoization cache served the result.
var EvaluationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "warden",
		Subsystem: "evaluator",
		Name:      "evaluation_duration_seconds",
		Help:      "Evaluate call latency in seconds.",
		Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	},
	[]string{"cache"},
)
