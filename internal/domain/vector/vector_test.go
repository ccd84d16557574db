package vector

import (
	"math"
	"testing"
)

func TestNormalize_UnitLength(t *testing.T) {
	v := Normalize([]float32{3, 4})

	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", v)
	}
	if n := Dot(v, v); math.Abs(float64(n)-1) > 1e-6 {
		t.Errorf("expected unit length, got squared norm %f", n)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("v[%d] = %f, expected 0", i, x)
		}
	}
}

func TestDot(t *testing.T) {
	if got := Dot([]float32{1, 2, 3}, []float32{4, 5, 6}); got != 32 {
		t.Errorf("expected 32, got %f", got)
	}
}
