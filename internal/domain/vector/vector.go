// Package vector holds the embedding-space primitives shared by the index and the encoder.
package vector

import "math"

// Hit is a single nearest-neighbor match: the row of the embedding matrix and its
// inner-product similarity to the query.
type Hit struct {
	Row   int
	Score float32
}

// Normalize scales v to unit L2 length in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// Dot returns the inner product of a and b. Both must have the same length.
func Dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
