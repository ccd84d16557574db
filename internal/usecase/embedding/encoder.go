package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/vector"
)

// Encoder produces unit-length query vectors of a fixed dimension.
type Encoder struct {
	inner domain.Embedder
	dim   int
}

// NewEncoder wraps inner. A non-positive dim disables the dimension check.
func NewEncoder(inner domain.Embedder, dim int) *Encoder {
	return &Encoder{inner: inner, dim: dim}
}

// blankQuery stands in for an empty query: embedding APIs reject empty input.
const blankQuery = " "

// Encode embeds query and L2-normalizes the result. An empty or whitespace-only
// query is sent as blankQuery. All failures wrap domain.ErrEncoding.
func (e *Encoder) Encode(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		query = blankQuery
	}
	res, err := e.inner.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncoding, err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrEncoding)
	}
	if e.dim > 0 && len(res.Embedding) != e.dim {
		return nil, fmt.Errorf("%w: got dimension %d, index expects %d",
			domain.ErrEncoding, len(res.Embedding), e.dim)
	}

	// copy so cached slices are never mutated
	out := make([]float32, len(res.Embedding))
	copy(out, res.Embedding)
	return vector.Normalize(out), nil
}

// HealthCheck forwards to the inner embedder.
func (e *Encoder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
