// Package search runs the retrieval pipeline: encode, index search, hydrate,
// optional rerank, truncate and rank.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/request"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/domain/vector"
	"github.com/kailas-cloud/medsearch/internal/logger"
	"github.com/kailas-cloud/medsearch/internal/metrics"
	"github.com/kailas-cloud/medsearch/internal/observability"
)

// Outcome is one pipeline run.
type Outcome struct {
	Candidates []result.Candidate
	Elapsed    time.Duration
	// TopK is the effective limit after clamping to the collection size.
	TopK     int
	Clamped  bool
	Reranked bool
}

// Service is safe for concurrent use; all of its dependencies are read-only.
type Service struct {
	enc      Encoder
	index    Index
	docs     DocumentStore
	reranker Reranker
	fuser    Fuser
}

// Option configures a Service.
type Option func(*Service)

// WithReranker enables the cross-encoder stage.
func WithReranker(r Reranker) Option {
	return func(s *Service) { s.reranker = r }
}

// WithFuser replaces the hybrid extension point.
func WithFuser(f Fuser) Option {
	return func(s *Service) { s.fuser = f }
}

// New creates a search service. Without a reranker, requests asking for
// reranking are served in coarse order.
func New(enc Encoder, index Index, docs DocumentStore, opts ...Option) *Service {
	s := &Service{enc: enc, index: index, docs: docs, fuser: DenseOnly{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reranking reports whether a reranker is configured.
func (s *Service) Reranking() bool { return s.reranker != nil }

// Search runs the pipeline for req. Encoder, index and reranker failures abort the call.
func (s *Service) Search(ctx context.Context, req request.Request) (Outcome, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	req, clamped := req.ClampTopK(s.docs.Len())
	rerank := req.UseReranking() && s.reranker != nil

	ctx, span := observability.StartSearchSpan(ctx, req.TopK(), rerank, req.Hybrid())
	defer span.End()

	out, err := s.run(ctx, req, rerank)
	status := "ok"
	if err != nil {
		status = "error"
		observability.RecordError(span, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	if err != nil {
		return Outcome{}, err
	}

	out.Elapsed = time.Since(start)
	out.TopK = req.TopK()
	out.Clamped = clamped
	out.Reranked = rerank
	metrics.SearchDuration.WithLabelValues(strconv.FormatBool(rerank)).Observe(out.Elapsed.Seconds())

	if req.UseReranking() && !rerank {
		log.Debug("reranking requested but no reranker configured")
	}
	log.Debug("search completed",
		zap.Int("top_k", out.TopK),
		zap.Bool("clamped", clamped),
		zap.Bool("reranked", rerank),
		zap.Int("results", len(out.Candidates)),
		zap.Duration("elapsed", out.Elapsed),
	)
	return out, nil
}

func (s *Service) run(ctx context.Context, req request.Request, rerank bool) (Outcome, error) {
	vec, err := s.encode(ctx, req.Query())
	if err != nil {
		return Outcome{}, err
	}

	pool := req.TopK()
	if rerank {
		pool = req.PoolSize()
	}
	hits, err := s.searchIndex(ctx, vec, pool)
	if err != nil {
		return Outcome{}, err
	}

	if req.Hybrid() {
		logger.FromContext(ctx).Debug("hybrid retrieval requested", zap.String("fuser", fmt.Sprintf("%T", s.fuser)))
		if hits, err = s.fuser.Fuse(ctx, req.Query(), hits); err != nil {
			return Outcome{}, fmt.Errorf("fuse hits: %w", err)
		}
	}

	cands := s.hydrate(ctx, hits)

	if rerank {
		if cands, err = s.rerank(ctx, req.Query(), cands); err != nil {
			return Outcome{}, err
		}
	}

	if len(cands) > req.TopK() {
		cands = cands[:req.TopK()]
	}
	for i := range cands {
		cands[i] = cands[i].WithRank(i + 1)
	}
	return Outcome{Candidates: cands}, nil
}

func (s *Service) encode(ctx context.Context, query string) ([]float32, error) {
	ctx, span := observability.StartStageSpan(ctx, "encode")
	defer span.End()

	vec, err := s.enc.Encode(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		if !errors.Is(err, domain.ErrEncoding) {
			err = fmt.Errorf("%w: %w", domain.ErrEncoding, err)
		}
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return vec, nil
}

func (s *Service) searchIndex(ctx context.Context, vec []float32, n int) ([]vector.Hit, error) {
	ctx, span := observability.StartStageSpan(ctx, "index", attribute.Int("index.pool", n))
	defer span.End()

	hits, err := s.index.Search(ctx, vec, n)
	if err != nil {
		observability.RecordError(span, err)
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		return nil, fmt.Errorf("index search: %w", err)
	}
	span.SetAttributes(attribute.Int("index.hits", len(hits)))
	return hits, nil
}

// hydrate resolves hits to documents in index order. Rows past the document
// count are skipped; a missing document for a valid row is logged and skipped.
func (s *Service) hydrate(ctx context.Context, hits []vector.Hit) []result.Candidate {
	cands := make([]result.Candidate, 0, len(hits))
	for _, h := range hits {
		id, ok := s.docs.DocIDAt(h.Row)
		if !ok {
			metrics.SearchSkippedRowsTotal.WithLabelValues("out_of_range").Inc()
			continue
		}
		doc, err := s.docs.Get(id)
		if err != nil {
			metrics.SearchSkippedRowsTotal.WithLabelValues("missing_document").Inc()
			logger.FromContext(ctx).Error("index row has no document",
				zap.Int("row", h.Row), zap.String("doc_id", id), zap.Error(err))
			continue
		}
		cands = append(cands, result.New(doc, float64(h.Score), len(cands)+1))
	}
	return cands
}

// rerank scores every candidate in one batch and reorders them by rerank score.
// The sort is stable so equal scores keep coarse order.
func (s *Service) rerank(ctx context.Context, query string, cands []result.Candidate) ([]result.Candidate, error) {
	if len(cands) == 0 {
		return cands, nil
	}
	ctx, span := observability.StartStageSpan(ctx, "rerank", attribute.Int("rerank.pairs", len(cands)))
	defer span.End()

	texts := make([]string, len(cands))
	for i := range cands {
		texts[i] = cands[i].Text()
	}

	start := time.Now()
	scores, err := s.reranker.Rerank(ctx, query, texts)
	metrics.RerankDuration.Observe(time.Since(start).Seconds())
	if err == nil && len(scores) != len(cands) {
		err = fmt.Errorf("got %d scores for %d candidates", len(scores), len(cands))
	}
	if err != nil {
		observability.RecordError(span, err)
		if !errors.Is(err, domain.ErrRerankerError) {
			err = fmt.Errorf("%w: %w", domain.ErrRerankerError, err)
		}
		return nil, fmt.Errorf("rerank: %w", err)
	}

	for i := range cands {
		cands[i] = cands[i].WithRerankScore(scores[i])
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].AuthoritativeScore() > cands[j].AuthoritativeScore()
	})
	return cands, nil
}
