// Package engine assembles the loaded artifacts into a search engine and
// publishes it once loading completes.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/usecase/search"
)

// Engine is an immutable, fully loaded search engine.
type Engine struct {
	search *search.Service
	docs   DocumentStore
	index  Index
}

// Validate checks that docs and index line up row for row and, when dim is
// positive, that the index matches the query encoder dimension.
func Validate(docs DocumentStore, index Index, dim int) error {
	if docs == nil || index == nil {
		return fmt.Errorf("%w: documents and index are required", domain.ErrArtifactMismatch)
	}
	if docs.Len() != index.Len() {
		return fmt.Errorf("%w: %d documents but %d embedding rows",
			domain.ErrArtifactMismatch, docs.Len(), index.Len())
	}
	if dim > 0 && index.Dim() != dim {
		return fmt.Errorf("%w: index dimension %d, encoder dimension %d",
			domain.ErrArtifactMismatch, index.Dim(), dim)
	}
	return nil
}

// Build validates the artifacts and wires the search pipeline.
// dim is the query encoder dimension; zero skips the check.
func Build(docs DocumentStore, index Index, enc search.Encoder, dim int, opts ...search.Option) (*Engine, error) {
	if err := Validate(docs, index, dim); err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("query encoder is required")
	}
	return &Engine{
		search: search.New(enc, index, docs, opts...),
		docs:   docs,
		index:  index,
	}, nil
}

// Search returns the retrieval pipeline.
func (e *Engine) Search() *search.Service { return e.search }

// Documents returns the document store.
func (e *Engine) Documents() DocumentStore { return e.docs }

// Size returns the number of indexed documents.
func (e *Engine) Size() int { return e.docs.Len() }

// Dim returns the embedding dimension.
func (e *Engine) Dim() int { return e.index.Dim() }

// LoadFunc loads artifacts and builds an Engine.
type LoadFunc func(ctx context.Context) (*Engine, error)

// Holder publishes the engine to concurrent readers. Until Set is called,
// Get reports domain.ErrNotReady.
type Holder struct {
	p atomic.Pointer[Engine]
}

// NewHolder creates an empty Holder.
func NewHolder() *Holder { return &Holder{} }

// Set publishes e.
func (h *Holder) Set(e *Engine) { h.p.Store(e) }

// Get returns the published engine.
func (h *Holder) Get() (*Engine, error) {
	e := h.p.Load()
	if e == nil {
		return nil, domain.ErrNotReady
	}
	return e, nil
}

// Ready reports whether an engine has been published.
func (h *Holder) Ready() bool { return h.p.Load() != nil }

// Ping implements the health check contract.
func (h *Holder) Ping(_ context.Context) error {
	if !h.Ready() {
		return domain.ErrNotReady
	}
	return nil
}

// Load runs load synchronously and publishes the result.
func (h *Holder) Load(ctx context.Context, load LoadFunc, logger *zap.Logger) error {
	start := time.Now()
	e, err := load(ctx)
	if err != nil {
		logger.Error("engine load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return fmt.Errorf("load engine: %w", err)
	}
	h.Set(e)
	logger.Info("engine ready",
		zap.Int("documents", e.Size()),
		zap.Int("dim", e.Dim()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// LoadAsync runs Load in a goroutine. The returned channel receives the
// load error (nil on success) and is then closed.
func (h *Holder) LoadAsync(ctx context.Context, load LoadFunc, logger *zap.Logger) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- h.Load(ctx, load, logger)
	}()
	return done
}
