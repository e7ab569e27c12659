package pipeline

import "github.com/prometheus/client_golang/prometheus"

// stageDuration is the stage-timing histogram named in DESIGN.md: each
// stage's wall-clock duration, labeled by stage name, so a Prometheus
// scrape can show where a workflow spends its time without reading
// state.stage_timings out of band.
var stageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "repurposing",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage, by stage name.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"stage"},
)

func init() {
	prometheus.MustRegister(stageDuration)
}
