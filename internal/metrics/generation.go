package metrics

import "github.com/prometheus/client_golang/prometheus"

// Grounded generation metrics. kind is "answer", "summary" or "simplify";
// outcome is "ok" or a failure reason.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total generation calls by outcome",
		},
		[]string{"kind", "outcome"},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generation backend latency",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
		[]string{"kind"},
	)
)

func generationCollectors() []prometheus.Collector {
	return []prometheus.Collector{GenerationRequestsTotal, GenerationDuration}
}
