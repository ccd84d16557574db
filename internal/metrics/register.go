package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register adds every pipeline collector to the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		var cs []prometheus.Collector
		cs = append(cs, embeddingCollectors()...)
		cs = append(cs, searchCollectors()...)
		cs = append(cs, generationCollectors()...)
		prometheus.MustRegister(cs...)
	})
}
