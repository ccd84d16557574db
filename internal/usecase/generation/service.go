// Package generation builds grounded prompts from retrieved documents and degrades
// to fixed fallback text whenever the language model is missing or fails.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/answer"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/metrics"
	"github.com/kailas-cloud/medsearch/internal/observability"
)

// Service never returns errors: every failure becomes an answer.Failure.
type Service struct {
	backend Backend
	cfg     Config
	logger  *zap.Logger
}

// New creates a generation service. A nil backend means generation is not configured.
func New(backend Backend, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, cfg: cfg, logger: logger}
}

// Available reports whether a backend is configured.
func (s *Service) Available() bool { return s.backend != nil }

// GenerateResponse answers query from the first maxDocs candidates, in the order given.
func (s *Service) GenerateResponse(
	ctx context.Context, query string, cands []result.Candidate, maxDocs int,
) answer.Answer {
	if !s.Available() {
		metrics.GenerationRequestsTotal.WithLabelValues("answer", string(answer.ReasonNotConfigured)).Inc()
		return answer.Answer{
			Text:    s.cfg.Messages.NotConfigured,
			Sources: []answer.Source{},
			Failure: &answer.Failure{Reason: answer.ReasonNotConfigured, Cause: "generation backend not configured"},
		}
	}

	docs := head(cands, maxDocs)
	prompt := answerPrompt(query,
		buildContext(docs, s.cfg.ContextChars, s.cfg.Messages.UnknownSource),
		s.cfg.Language, s.cfg.Messages.Disclaimer)

	text, failure := s.completeWith(ctx, "answer", prompt, s.cfg.AnswerTimeout, s.cfg.Answer)
	if failure != nil {
		sources := make([]answer.Source, len(docs))
		for i := range docs {
			sources[i] = answer.Source{DocID: docs[i].DocID()}
		}
		return answer.Answer{
			Text:       s.cfg.Messages.AnswerFailed,
			Sources:    sources,
			NumSources: len(docs),
			Failure:    failure,
		}
	}

	sources := make([]answer.Source, len(docs))
	for i := range docs {
		score := docs[i].Score()
		excerpt := truncate(docs[i].Text(), s.cfg.ExcerptChars)
		sources[i] = answer.Source{DocID: docs[i].DocID(), Score: &score, Excerpt: &excerpt}
	}
	return answer.Answer{Text: text, Sources: sources, NumSources: len(docs)}
}

// GenerateSummary writes a two-sentence summary of the first topN candidates.
func (s *Service) GenerateSummary(ctx context.Context, cands []result.Candidate, topN int) answer.Summary {
	if !s.Available() {
		metrics.GenerationRequestsTotal.WithLabelValues("summary", string(answer.ReasonNotConfigured)).Inc()
		return answer.Summary{
			Text:    s.cfg.Messages.SummaryUnavailable,
			Failure: &answer.Failure{Reason: answer.ReasonNotConfigured, Cause: "generation backend not configured"},
		}
	}

	prompt := summaryPrompt(
		buildContext(head(cands, topN), s.cfg.ContextChars, s.cfg.Messages.UnknownSource),
		s.cfg.Language)
	text, failure := s.completeWith(ctx, "summary", prompt, s.cfg.SummaryTimeout, s.cfg.Summary)
	if failure != nil {
		return answer.Summary{Text: s.cfg.Messages.SummaryFailed, Failure: failure}
	}
	return answer.Summary{Text: text}
}

// Simplify rewrites a medical passage in plain language. The input is returned
// unchanged when generation is unavailable or fails.
func (s *Service) Simplify(ctx context.Context, text string) string {
	if !s.Available() {
		return text
	}
	out, failure := s.completeWith(ctx, "simplify", simplifyPrompt(text, s.cfg.Language),
		s.cfg.SimplifyTimeout, s.cfg.Simplify)
	if failure != nil {
		return text
	}
	return out
}

// complete calls the backend, turning a panic into an error. Answer and summary run
// on their own goroutines, out of reach of the HTTP recoverer.
func (s *Service) complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("backend panic: %v", r)
		}
	}()
	return s.backend.Complete(ctx, prompt, opts) //nolint:wrapcheck // classified by completeWith
}

// completeWith issues exactly one backend call bounded by timeout and classifies failures.
func (s *Service) completeWith(
	ctx context.Context, kind, prompt string, timeout time.Duration, opts domain.CompletionOptions,
) (string, *answer.Failure) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx, span := observability.StartGenerationSpan(ctx, kind, s.cfg.Model)
	defer span.End()

	start := time.Now()
	text, err := s.complete(ctx, prompt, opts)
	metrics.GenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err == nil && text == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		observability.RecordError(span, err)
		reason := answer.ReasonBackendError
		if errors.Is(err, context.DeadlineExceeded) {
			reason = answer.ReasonTimeout
		}
		metrics.GenerationRequestsTotal.WithLabelValues(kind, string(reason)).Inc()
		s.logger.Error("generation failed",
			zap.String("kind", kind),
			zap.String("reason", string(reason)),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return "", &answer.Failure{Reason: reason, Cause: err.Error()}
	}

	metrics.GenerationRequestsTotal.WithLabelValues(kind, "ok").Inc()
	return text, nil
}

func head(cands []result.Candidate, n int) []result.Candidate {
	if n < 0 {
		n = 0
	}
	if n > len(cands) {
		n = len(cands)
	}
	return cands[:n]
}
