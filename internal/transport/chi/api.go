package chi

import "time"

// ErrorResponseCode is the machine-readable error code returned in error bodies.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeEngineNotReady         ErrorResponseCode = "engine_not_ready"
	ErrorResponseCodeDocumentNotFound       ErrorResponseCode = "document_not_found"
	ErrorResponseCodeEncodingFailed         ErrorResponseCode = "encoding_failed"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeRerankerError          ErrorResponseCode = "reranker_error"
	ErrorResponseCodeNotFound               ErrorResponseCode = "not_found"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// QueryRequest is the POST /query body. Omitted fields take server defaults.
type QueryRequest struct {
	Query        string `json:"query"`
	TopK         *int   `json:"top_k,omitempty"`
	UseReranking *bool  `json:"use_reranking,omitempty"`
	Hybrid       *bool  `json:"hybrid,omitempty"`
	UseRAG       *bool  `json:"use_rag,omitempty"`
}

// SearchResultItem is one ranked document.
type SearchResultItem struct {
	DocID       string   `json:"doc_id"`
	Text        string   `json:"text"`
	Score       float64  `json:"score"`
	Rank        int      `json:"rank"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Topic       *string  `json:"topic,omitempty"`
}

// RAGSource is a document cited by the generated answer.
type RAGSource struct {
	DocID   string   `json:"doc_id"`
	Score   *float64 `json:"score,omitempty"`
	Excerpt *string  `json:"excerpt,omitempty"`
}

// RAGError explains why the generated answer is a fallback.
type RAGError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// QueryResponse is returned by POST /query and GET /search. Latency is in seconds.
type QueryResponse struct {
	Query       string             `json:"query"`
	Results     []SearchResultItem `json:"results"`
	Latency     float64            `json:"latency"`
	TotalDocs   int                `json:"total_docs"`
	TopK        int                `json:"top_k"`
	Reranked    bool               `json:"reranked"`
	RAGResponse *string            `json:"rag_response,omitempty"`
	RAGSummary  *string            `json:"rag_summary,omitempty"`
	RAGSources  []RAGSource        `json:"rag_sources,omitempty"`
	RAGError    *RAGError          `json:"rag_error,omitempty"`
}

// DocumentResponse is returned by GET /docs/{doc_id}.
type DocumentResponse struct {
	DocID  string  `json:"doc_id"`
	Text   string  `json:"text"`
	Source *string `json:"source,omitempty"`
	Topic  *string `json:"topic,omitempty"`
}

// SimplifyRequest is the POST /simplify body.
type SimplifyRequest struct {
	Text string `json:"text"`
}

// SimplifyResponse carries the plain-language text.
type SimplifyResponse struct {
	Text string `json:"text"`
}

// MetricsResponse summarizes served query latencies, in seconds.
type MetricsResponse struct {
	TotalQueries  int     `json:"total_queries"`
	AvgLatency    float64 `json:"avg_latency"`
	MedianLatency float64 `json:"median_latency"`
	MinLatency    float64 `json:"min_latency"`
	MaxLatency    float64 `json:"max_latency"`
}

// QueryLogEntry is one served query. Latency is in seconds.
type QueryLogEntry struct {
	Query     string    `json:"query"`
	Latency   float64   `json:"latency"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryLogResponse is returned by GET /metrics/queries, newest first.
type QueryLogResponse struct {
	Total   int             `json:"total"`
	Entries []QueryLogEntry `json:"entries"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// InfoResponse is returned by GET /.
type InfoResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Ready   bool   `json:"ready"`
}
