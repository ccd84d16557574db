package domain

// KeyPrefix namespaces every key medsearch writes to a shared key-value store.
const KeyPrefix = "medsearch:"

// VectorConfig describes the embedding space the offline index was built in.
type VectorConfig struct {
	Model            string
	Dimensions       int
	DistanceMetric   string
	QueryInstruction string
}

// DefaultVectorConfig returns the configuration matching the shipped artifacts
// (all-MiniLM-L6-v2, normalized, inner product).
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions:     384,
		DistanceMetric: "ip",
	}
}
