package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/answer"
	"github.com/kailas-cloud/medsearch/internal/domain/document"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

// --- Mocks ---

type mockBackend struct {
	text    string
	err     error
	block   bool
	calls   int
	prompts []string
	opts    []domain.CompletionOptions
}

func (m *mockBackend) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.text, m.err
}

func candidates(t *testing.T) []result.Candidate {
	t.Helper()
	mk := func(id, text string, score float64, rank int, opts ...document.Option) result.Candidate {
		d, err := document.New(id, text, opts...)
		if err != nil {
			t.Fatal(err)
		}
		return result.New(d, score, rank)
	}
	return []result.Candidate{
		mk("g1", "Glaucoma is a group of eye diseases. "+strings.Repeat("x", 3000), 0.9, 1, document.WithSource("NEI")),
		mk("d1", "Diabetes symptoms include thirst.", 0.8, 2),
		mk("h1", "Hypertension causes are varied.", 0.7, 3, document.WithSource("NHLBI")),
		mk("c1", "Cataract clouds the lens.", 0.6, 4),
	}
}

func newService(b Backend) *Service {
	cfg := DefaultConfig()
	cfg.Model = "test-model"
	return New(b, cfg, zap.NewNop())
}

// --- Tests ---

func TestGenerateResponse_NotConfigured(t *testing.T) {
	svc := newService(nil)
	a := svc.GenerateResponse(context.Background(), "q", candidates(t), 3)

	if a.Failure == nil || a.Failure.Reason != answer.ReasonNotConfigured {
		t.Fatalf("expected not_configured failure, got %+v", a.Failure)
	}
	if a.Text != DefaultMessages().NotConfigured {
		t.Errorf("unexpected text: %q", a.Text)
	}
	if len(a.Sources) != 0 || a.NumSources != 0 {
		t.Errorf("expected no sources, got %d", len(a.Sources))
	}
}

func TestGenerateResponse_Success(t *testing.T) {
	b := &mockBackend{text: "Le glaucome..."}
	svc := newService(b)

	a := svc.GenerateResponse(context.Background(), "what is glaucoma?", candidates(t), 3)
	if a.Degraded() {
		t.Fatalf("unexpected failure: %v", a.Failure)
	}
	if a.Text != "Le glaucome..." || a.NumSources != 3 || len(a.Sources) != 3 {
		t.Fatalf("unexpected answer: %+v", a)
	}
	if b.calls != 1 {
		t.Errorf("expected exactly one backend call, got %d", b.calls)
	}

	src := a.Sources[0]
	if src.DocID != "g1" || src.Score == nil || *src.Score != 0.9 {
		t.Errorf("unexpected source: %+v", src)
	}
	if src.Excerpt == nil || len([]rune(*src.Excerpt)) != 203 || !strings.HasSuffix(*src.Excerpt, "...") {
		t.Errorf("excerpt should be 200 chars plus marker, got %d", len(*src.Excerpt))
	}
	if ex := *a.Sources[1].Excerpt; ex != "Diabetes symptoms include thirst." {
		t.Errorf("short excerpt should be untouched, got %q", ex)
	}

	opts := b.opts[0]
	if opts.Temperature != 0.7 || opts.TopP != 0.9 || opts.TopK != 40 || opts.MaxTokens != 2048 {
		t.Errorf("unexpected decoding params: %+v", opts)
	}
}

func TestGenerateResponse_Prompt(t *testing.T) {
	b := &mockBackend{text: "ok"}
	svc := newService(b)
	svc.GenerateResponse(context.Background(), "what is glaucoma?", candidates(t), 2)

	p := b.prompts[0]
	for _, want := range []string{
		"what is glaucoma?",
		"[Document 1 - Source: NEI]",
		"[Document 2 - Source: Source inconnue]",
		sectionMarker,
		"ONLY",
		"French",
		DefaultMessages().Disclaimer,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "Hypertension") {
		t.Error("prompt must only contain the first maxDocs documents")
	}
	if strings.Contains(p, strings.Repeat("x", 2001)) {
		t.Error("document text must be truncated to 2000 chars in context")
	}
}

func TestGenerateResponse_BackendError(t *testing.T) {
	b := &mockBackend{err: errors.New("quota exceeded")}
	svc := newService(b)

	a := svc.GenerateResponse(context.Background(), "q", candidates(t), 3)
	if a.Failure == nil || a.Failure.Reason != answer.ReasonBackendError {
		t.Fatalf("expected backend_error, got %+v", a.Failure)
	}
	if !strings.Contains(a.Failure.Cause, "quota exceeded") {
		t.Errorf("cause should carry the backend error, got %q", a.Failure.Cause)
	}
	if a.Text != DefaultMessages().AnswerFailed {
		t.Errorf("unexpected fallback text: %q", a.Text)
	}
	if len(a.Sources) != 3 {
		t.Fatalf("expected bare sources for 3 docs, got %d", len(a.Sources))
	}
	for _, s := range a.Sources {
		if s.DocID == "" || s.Score != nil || s.Excerpt != nil {
			t.Errorf("degraded sources must carry doc ids only: %+v", s)
		}
	}
}

func TestGenerateResponse_Timeout(t *testing.T) {
	b := &mockBackend{block: true}
	cfg := DefaultConfig()
	cfg.AnswerTimeout = 20 * time.Millisecond
	svc := New(b, cfg, zap.NewNop())

	a := svc.GenerateResponse(context.Background(), "q", candidates(t), 3)
	if a.Failure == nil || a.Failure.Reason != answer.ReasonTimeout {
		t.Fatalf("expected timeout, got %+v", a.Failure)
	}
}

func TestGenerateResponse_EmptyCompletionIsFailure(t *testing.T) {
	svc := newService(&mockBackend{text: ""})
	a := svc.GenerateResponse(context.Background(), "q", candidates(t), 1)
	if a.Failure == nil || a.Failure.Reason != answer.ReasonBackendError {
		t.Fatalf("expected backend_error, got %+v", a.Failure)
	}
}

func TestGenerateSummary(t *testing.T) {
	b := &mockBackend{text: "Deux phrases."}
	svc := newService(b)

	s := svc.GenerateSummary(context.Background(), candidates(t), 2)
	if s.Failure != nil || s.Text != "Deux phrases." {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !strings.Contains(b.prompts[0], "two sentences") {
		t.Error("summary prompt should ask for two sentences")
	}
	if o := b.opts[0]; o.Temperature != 0.5 || o.MaxTokens != 150 {
		t.Errorf("unexpected summary params: %+v", o)
	}
}

func TestGenerateSummary_Degraded(t *testing.T) {
	s := newService(nil).GenerateSummary(context.Background(), candidates(t), 5)
	if s.Text != DefaultMessages().SummaryUnavailable || s.Failure.Reason != answer.ReasonNotConfigured {
		t.Errorf("unexpected: %+v", s)
	}

	s = newService(&mockBackend{err: errors.New("boom")}).GenerateSummary(context.Background(), candidates(t), 5)
	if s.Text != DefaultMessages().SummaryFailed || s.Failure.Reason != answer.ReasonBackendError {
		t.Errorf("unexpected: %+v", s)
	}
}

func TestSimplify(t *testing.T) {
	const in = "Idiopathic intracranial hypertension"
	if got := newService(nil).Simplify(context.Background(), in); got != in {
		t.Errorf("not configured should echo input, got %q", got)
	}
	if got := newService(&mockBackend{err: errors.New("x")}).Simplify(context.Background(), in); got != in {
		t.Errorf("failure should echo input, got %q", got)
	}
	b := &mockBackend{text: "Pression élevée dans le crâne"}
	if got := newService(b).Simplify(context.Background(), in); got != "Pression élevée dans le crâne" {
		t.Errorf("unexpected: %q", got)
	}
	if !strings.Contains(b.prompts[0], in) {
		t.Error("prompt should include the original text")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 3); got != "hél..." {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Errorf("got %q", got)
	}
}

type panicBackend struct{}

func (panicBackend) Complete(context.Context, string, domain.CompletionOptions) (string, error) {
	panic("nil map write in backend")
}

func TestBackendPanicDegrades(t *testing.T) {
	s := newService(panicBackend{})
	cands := candidates(t)

	ans := s.GenerateResponse(context.Background(), "glaucoma", cands, 3)
	if ans.Failure == nil || ans.Failure.Reason != answer.ReasonBackendError {
		t.Fatalf("expected backend_error, got %+v", ans.Failure)
	}
	if !strings.Contains(ans.Failure.Cause, "nil map write in backend") {
		t.Errorf("panic value missing from cause: %q", ans.Failure.Cause)
	}
	if len(ans.Sources) != 3 || ans.Sources[0].Score != nil {
		t.Errorf("expected bare sources, got %+v", ans.Sources)
	}

	sum := s.GenerateSummary(context.Background(), cands, 5)
	if sum.Failure == nil || sum.Failure.Reason != answer.ReasonBackendError {
		t.Errorf("expected degraded summary, got %+v", sum.Failure)
	}
}
