package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry creates a Prometheus registry with the standard Go/process
// collectors, this module's own core metrics, and any additional
// component collectors (pkg/ratelimit.Collectors(), pkg/monitor.Collectors())
// passed in by the caller.
func NewRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		EvaluationsTotal,
		EvaluationDuration,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}
