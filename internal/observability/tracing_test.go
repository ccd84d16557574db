package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, TracingConfig{ServiceName: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSampler(t *testing.T) {
	if got := sampler(0).Description(); got != sdktrace.NeverSample().Description() {
		t.Errorf("rate 0: %s", got)
	}
	if got := sampler(1).Description(); got == sdktrace.NeverSample().Description() {
		t.Errorf("rate 1 should sample")
	}
}

func TestSpans_Recorded(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, root := StartSearchSpan(context.Background(), 5, true, false)
	_, stage := StartStageSpan(ctx, "rerank")
	RecordError(stage, errors.New("reranker down"))
	stage.End()
	root.End()

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "search.rerank" || spans[0].Status().Code != codes.Error {
		t.Errorf("unexpected stage span: %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("stage span should be a child of the search span")
	}
}

func TestRecordError_Nil(t *testing.T) {
	_, span := StartGenerationSpan(context.Background(), "answer", "m")
	RecordError(span, nil)
	span.End()
}
