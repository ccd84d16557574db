package search

import (
	"context"

	"github.com/kailas-cloud/medsearch/internal/domain/document"
	"github.com/kailas-cloud/medsearch/internal/domain/vector"
)

// Encoder maps query text to a unit-length vector.
type Encoder interface {
	Encode(ctx context.Context, query string) ([]float32, error)
}

// Index returns the n nearest rows by inner product, best first.
type Index interface {
	Search(ctx context.Context, query []float32, n int) ([]vector.Hit, error)
}

// DocumentStore resolves index rows to documents.
type DocumentStore interface {
	Len() int
	DocIDAt(row int) (string, bool)
	Get(id string) (document.Document, error)
}

// Reranker scores each text against query. Output is aligned with input.
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Fuser may merge or reorder coarse hits before hydration when hybrid retrieval is requested.
type Fuser interface {
	Fuse(ctx context.Context, query string, hits []vector.Hit) ([]vector.Hit, error)
}
