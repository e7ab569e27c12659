package orchestrator

import "github.com/prometheus/client_golang/prometheus"

// runOutcomes counts completed Run calls by terminal event type, the
// request-level counterpart to pipeline's per-stage duration histogram.
var runOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "repurposing",
		Subsystem: "orchestrator",
		Name:      "run_total",
		Help:      "Completed Run calls, labeled by terminal event type.",
	},
	[]string{"event_type"},
)

func init() {
	prometheus.MustRegister(runOutcomes)
}
