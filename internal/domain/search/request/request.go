package request

import (
	"fmt"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 100
	// PoolFactor is the over-fetch multiplier applied to top_k before reranking.
	PoolFactor = 3
)

// Request is a validated search query.
type Request struct {
	query        string
	topK         int
	useReranking bool
	hybrid       bool
}

// New validates search parameters.
// An empty query is accepted (it still embeds to a valid, low-signal vector).
// top_k outside [1, MaxTopK] is rejected; callers substitute DefaultTopK for omitted values.
func New(query string, topK int, useReranking, hybrid bool) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if topK < 1 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d, got %d",
			domain.ErrInvalidRequest, MaxTopK, topK)
	}
	return Request{
		query:        query,
		topK:         topK,
		useReranking: useReranking,
		hybrid:       hybrid,
	}, nil
}

// ClampTopK returns a copy whose top_k does not exceed size, and whether clamping happened.
// A non-positive size leaves the request unchanged.
func (r Request) ClampTopK(size int) (Request, bool) {
	if size <= 0 || r.topK <= size {
		return r, false
	}
	r.topK = size
	return r, true
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }

// UseReranking reports whether the cross-encoder stage runs.
func (r *Request) UseReranking() bool { return r.useReranking }

// Hybrid reports whether lexical+dense fusion was requested.
func (r *Request) Hybrid() bool { return r.hybrid }

// PoolSize returns how many coarse candidates to fetch from the index.
func (r *Request) PoolSize() int {
	if r.useReranking {
		return r.topK * PoolFactor
	}
	return r.topK
}
