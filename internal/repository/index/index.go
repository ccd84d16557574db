// Package index provides the vector index implementations used for coarse retrieval.
package index

import (
	"context"

	"github.com/kailas-cloud/medsearch/internal/domain/vector"
)

// Index answers top-N inner-product queries over normalized vectors.
// Hits come back ordered by descending score.
type Index interface {
	Search(ctx context.Context, query []float32, n int) ([]vector.Hit, error)
	Len() int
	Dim() int
}
