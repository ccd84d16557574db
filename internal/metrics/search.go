package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end retrieval latency (encode to ranked result)",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"reranked"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total retrieval pipeline runs",
		},
		[]string{"status"},
	)

	SearchSkippedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_skipped_rows_total",
			Help:      "Index rows dropped during hydration",
		},
		[]string{"reason"}, // "out_of_range" / "missing_document"
	)

	RerankDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rerank_duration_seconds",
			Help:      "Cross-encoder batch latency",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

func searchCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		SearchDuration,
		SearchRequestsTotal,
		SearchSkippedRowsTotal,
		RerankDuration,
	}
}
