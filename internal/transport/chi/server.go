// Package chi is the HTTP boundary: JSON handlers on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/answer"
	"github.com/kailas-cloud/medsearch/internal/domain/search/request"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/logger"
	healthuc "github.com/kailas-cloud/medsearch/internal/usecase/health"
	queryuc "github.com/kailas-cloud/medsearch/internal/usecase/query"
	usageuc "github.com/kailas-cloud/medsearch/internal/usecase/usage"
	"github.com/kailas-cloud/medsearch/internal/version"
)

const serviceName = "medsearch"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Readiness reports whether the engine has finished loading.
type Readiness interface {
	Ready() bool
}

// Defaults applied to omitted request fields.
type Defaults struct {
	TopK         int
	UseReranking bool
}

// Server holds the HTTP handlers.
type Server struct {
	query         *queryuc.Service
	usage         *usageuc.Collector
	health        *healthuc.Service
	ready         Readiness
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	query *queryuc.Service,
	usage *usageuc.Collector,
	health *healthuc.Service,
	ready Readiness,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	if defaults.TopK <= 0 {
		defaults.TopK = request.DefaultTopK
	}
	s := &Server{
		query:    query,
		usage:    usage,
		health:   health,
		ready:    ready,
		defaults: defaults,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, ErrorResponseCodeEngineNotReady),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, ErrorResponseCodeDocumentNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrEncoding, http.StatusBadGateway, ErrorResponseCodeEncodingFailed),
		sentinelHandler(domain.ErrRerankerError, http.StatusBadGateway, ErrorResponseCodeRerankerError),
	}
	return s
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.serveQuery(w, r, queryuc.Request{
		Query:        req.Query,
		TopK:         derefInt(req.TopK, s.defaults.TopK),
		UseReranking: derefBool(req.UseReranking, s.defaults.UseReranking),
		Hybrid:       derefBool(req.Hybrid, false),
		UseRAG:       derefBool(req.UseRAG, false),
	})
}

// Search handles GET /search. Same pipeline as POST /query, never with generation.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var (
		query        string
		topK         *int
		useReranking *bool
		hybrid       *bool
	)
	q := r.URL.Query()
	for _, b := range []struct {
		name string
		dest any
	}{
		{"query", &query},
		{"top_k", &topK},
		{"use_reranking", &useReranking},
		{"hybrid", &hybrid},
	} {
		if err := bindQuery(q, b.name, b.dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest,
				"Invalid format for parameter "+b.name)
			return
		}
	}

	s.serveQuery(w, r, queryuc.Request{
		Query:        query,
		TopK:         derefInt(topK, s.defaults.TopK),
		UseReranking: derefBool(useReranking, s.defaults.UseReranking),
		Hybrid:       derefBool(hybrid, false),
	})
}

func (s *Server) serveQuery(w http.ResponseWriter, r *http.Request, in queryuc.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.query.Query(ctx, in)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponseFromUC(resp))
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

// GetDocument handles GET /docs/{doc_id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	var docID string
	err := runtime.BindStyledParameterWithOptions("simple", "doc_id", chirouter.URLParam(r, "doc_id"), &docID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter doc_id")
		return
	}

	doc, err := s.query.Document(r.Context(), docID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := DocumentResponse{DocID: doc.ID(), Text: doc.Text()}
	if src, ok := doc.Source(); ok {
		resp.Source = &src
	}
	if topic, ok := doc.Topic(); ok {
		resp.Topic = &topic
	}
	writeJSON(w, http.StatusOK, resp)
}

// Simplify handles POST /simplify.
func (s *Server) Simplify(w http.ResponseWriter, r *http.Request) {
	var req SimplifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	text, err := s.query.Simplify(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SimplifyResponse{Text: text})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, _ *http.Request) {
	sum := s.usage.Summary()
	writeJSON(w, http.StatusOK, MetricsResponse{
		TotalQueries:  sum.Count,
		AvgLatency:    sum.Mean.Seconds(),
		MedianLatency: sum.Median.Seconds(),
		MinLatency:    sum.Min.Seconds(),
		MaxLatency:    sum.Max.Seconds(),
	})
}

// defaultQueryLogLimit bounds GET /metrics/queries when no limit is given.
const defaultQueryLogLimit = 50

// QueryLog handles GET /metrics/queries?limit=N: the most recent served queries.
func (s *Server) QueryLog(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := bindQuery(r.URL.Query(), "limit", &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter limit")
		return
	}
	n := derefInt(limit, defaultQueryLogLimit)
	if n < 1 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "limit must be positive")
		return
	}

	entries := s.usage.Entries()
	out := make([]QueryLogEntry, 0, min(n, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, QueryLogEntry{
			Query:     entries[i].Query,
			Latency:   entries[i].Latency.Seconds(),
			Timestamp: entries[i].Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, QueryLogResponse{Total: len(entries), Entries: out})
}

// ResetMetrics handles DELETE /metrics.
func (s *Server) ResetMetrics(w http.ResponseWriter, _ *http.Request) {
	s.usage.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// PrometheusMetrics handles GET /metrics/prometheus.
func (s *Server) PrometheusMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Info handles GET /.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Service: serviceName,
		Version: version.Version,
		Commit:  version.Commit,
		Ready:   s.ready != nil && s.ready.Ready(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotReady,
		domain.ErrDocumentNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrEncoding,
		domain.ErrRerankerError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	// Validation messages describe the caller's own input.
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func bindQuery(q url.Values, name string, dest any) error {
	return runtime.BindQueryParameter("form", true, false, name, q, dest) //nolint:wrapcheck // mapped to 400 by caller
}

func queryResponseFromUC(r queryuc.Response) QueryResponse {
	items := make([]SearchResultItem, len(r.Results))
	for i := range r.Results {
		items[i] = searchResultToAPI(&r.Results[i])
	}
	resp := QueryResponse{
		Query:     r.Query,
		Results:   items,
		Latency:   r.Latency.Seconds(),
		TotalDocs: len(items),
		TopK:      r.TopK,
		Reranked:  r.Reranked,
	}
	if r.Answer != nil {
		resp.RAGResponse = &r.Answer.Text
		resp.RAGSources = ragSourcesToAPI(r.Answer.Sources)
		if r.Answer.Failure != nil {
			resp.RAGError = ragErrorToAPI(r.Answer.Failure)
		}
	}
	if r.Summary != nil {
		resp.RAGSummary = &r.Summary.Text
	}
	return resp
}

func searchResultToAPI(c *result.Candidate) SearchResultItem {
	item := SearchResultItem{
		DocID: c.DocID(),
		Text:  c.Text(),
		Score: c.Score(),
		Rank:  c.Rank(),
	}
	if rs, ok := c.RerankScore(); ok {
		item.RerankScore = &rs
	}
	if src, ok := c.Source(); ok {
		item.Source = &src
	}
	if topic, ok := c.Topic(); ok {
		item.Topic = &topic
	}
	return item
}

func ragSourcesToAPI(src []answer.Source) []RAGSource {
	out := make([]RAGSource, len(src))
	for i, s := range src {
		out[i] = RAGSource{DocID: s.DocID, Score: s.Score, Excerpt: s.Excerpt}
	}
	return out
}

// ragErrorToAPI reports the failure class only; backend causes stay in the logs.
func ragErrorToAPI(f *answer.Failure) *RAGError {
	msg := "generation backend error"
	switch f.Reason {
	case answer.ReasonNotConfigured:
		msg = "generation backend not configured"
	case answer.ReasonTimeout:
		msg = "generation timed out"
	}
	return &RAGError{Reason: string(f.Reason), Message: msg}
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
