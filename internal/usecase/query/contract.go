package query

import (
	"context"
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain/answer"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/usecase/engine"
)

// EngineSource yields the loaded engine or domain.ErrNotReady.
type EngineSource interface {
	Get() (*engine.Engine, error)
}

// Generator produces grounded answers. It never fails; failures are encoded in the result.
type Generator interface {
	GenerateResponse(ctx context.Context, query string, cands []result.Candidate, maxDocs int) answer.Answer
	GenerateSummary(ctx context.Context, cands []result.Candidate, topN int) answer.Summary
	Simplify(ctx context.Context, text string) string
}

// Recorder logs served queries.
type Recorder interface {
	Record(query string, latency time.Duration)
}
