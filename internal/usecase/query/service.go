// Package query composes retrieval, query logging and optional grounded generation
// into a single request.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/answer"
	"github.com/kailas-cloud/medsearch/internal/domain/document"
	"github.com/kailas-cloud/medsearch/internal/domain/search/request"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/logger"
)

// Defaults for the number of candidates handed to generation.
const (
	DefaultMaxDocs     = 3
	DefaultSummaryDocs = 5
)

// Request is one /query call.
type Request struct {
	Query        string
	TopK         int
	UseReranking bool
	Hybrid       bool
	UseRAG       bool
}

// Response carries the ranked results and, when requested, the generation outcome.
// Answer and Summary are nil unless RAG was requested.
type Response struct {
	Query    string
	Results  []result.Candidate
	Latency  time.Duration
	TopK     int
	Reranked bool
	Answer   *answer.Answer
	Summary  *answer.Summary
}

// Options tunes how many candidates reach generation.
type Options struct {
	MaxDocs     int
	SummaryDocs int
}

// Service is safe for concurrent use.
type Service struct {
	engines  EngineSource
	gen      Generator
	recorder Recorder
	opts     Options
}

// New creates a Service. gen and recorder may be nil.
func New(engines EngineSource, gen Generator, recorder Recorder, opts Options) *Service {
	if opts.MaxDocs <= 0 {
		opts.MaxDocs = DefaultMaxDocs
	}
	if opts.SummaryDocs <= 0 {
		opts.SummaryDocs = DefaultSummaryDocs
	}
	return &Service{engines: engines, gen: gen, recorder: recorder, opts: opts}
}

// Query runs retrieval and, if asked, answer and summary generation in parallel.
// Generation failures never fail the call: results are returned in full.
func (s *Service) Query(ctx context.Context, in Request) (Response, error) {
	req, err := request.New(in.Query, in.TopK, in.UseReranking, in.Hybrid)
	if err != nil {
		return Response{}, fmt.Errorf("query: %w", err)
	}

	eng, err := s.engines.Get()
	if err != nil {
		return Response{}, err
	}
	ctx = logger.With(ctx, zap.Int("top_k", req.TopK()), zap.Bool("rag", in.UseRAG))

	out, err := eng.Search().Search(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("query: %w", err)
	}
	if s.recorder != nil {
		s.recorder.Record(in.Query, out.Elapsed)
	}

	resp := Response{
		Query:    in.Query,
		Results:  out.Candidates,
		Latency:  out.Elapsed,
		TopK:     out.TopK,
		Reranked: out.Reranked,
	}
	if !in.UseRAG || s.gen == nil || len(out.Candidates) == 0 {
		return resp, nil
	}

	var (
		wg  sync.WaitGroup
		ans answer.Answer
		sum answer.Summary
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ans = s.gen.GenerateResponse(ctx, in.Query, out.Candidates, s.opts.MaxDocs)
	}()
	go func() {
		defer wg.Done()
		sum = s.gen.GenerateSummary(ctx, out.Candidates, s.opts.SummaryDocs)
	}()
	wg.Wait()

	if ans.Degraded() {
		logger.FromContext(ctx).Warn("answer degraded",
			zap.String("reason", string(ans.Failure.Reason)),
			zap.Int("results", len(out.Candidates)),
		)
	}
	resp.Answer = &ans
	resp.Summary = &sum
	return resp, nil
}

// Document returns a document by id.
func (s *Service) Document(_ context.Context, id string) (document.Document, error) {
	eng, err := s.engines.Get()
	if err != nil {
		return document.Document{}, err
	}
	d, err := eng.Documents().Get(id)
	if err != nil {
		return document.Document{}, fmt.Errorf("get document %q: %w", id, err)
	}
	return d, nil
}

// Simplify rewrites text in plain language. Without a generator the text is returned as is.
func (s *Service) Simplify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is required", domain.ErrInvalidRequest)
	}
	if s.gen == nil {
		return text, nil
	}
	return s.gen.Simplify(ctx, text), nil
}
