package domain

import "errors"

var (
	// ErrNotReady signals that the search engine has not finished loading its artifacts.
	ErrNotReady = errors.New("search engine not ready")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrArtifactMismatch signals offline artifacts that do not line up (row counts, dimensions).
	ErrArtifactMismatch = errors.New("artifact mismatch")

	// ErrEncoding signals that the query could not be embedded.
	ErrEncoding = errors.New("query encoding failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexUnavailable signals a vector index failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrRerankerError signals a reranker failure.
	ErrRerankerError = errors.New("reranker error")
)

// ErrGenerationError signals a language-model backend failure.
var ErrGenerationError = errors.New("generation backend error")
