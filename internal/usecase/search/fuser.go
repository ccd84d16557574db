package search

import (
	"context"

	"github.com/kailas-cloud/medsearch/internal/domain/vector"
)

// DenseOnly is the default Fuser. There is no lexical index, so hits pass through unchanged.
type DenseOnly struct{}

// Fuse returns hits as-is.
func (DenseOnly) Fuse(_ context.Context, _ string, hits []vector.Hit) ([]vector.Hit, error) {
	return hits, nil
}
