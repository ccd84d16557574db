package engine

import "github.com/kailas-cloud/medsearch/internal/usecase/search"

// Index is a loaded vector index with known shape.
type Index interface {
	search.Index
	Len() int
	Dim() int
}

// DocumentStore is the loaded document collection.
type DocumentStore interface {
	search.DocumentStore
}
