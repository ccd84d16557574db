package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		opts    Options
		wantErr bool
	}{
		{name: "prod", env: "prod"},
		{name: "local with level", env: "local", opts: Options{Level: "warn"}},
		{name: "dev json", env: "dev", opts: Options{Format: "json"}},
		{name: "unknown env", env: "staging", wantErr: true},
		{name: "bad level", env: "prod", opts: Options{Level: "loud"}, wantErr: true},
		{name: "bad format", env: "prod", opts: Options{Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.env, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if l == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := New("local", Options{Level: "error"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be disabled at error level")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected no-op logger")
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = With(ctx, zap.String("query", "glaucoma"))
	FromContext(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["query"] != "glaucoma" {
		t.Errorf("missing field: %v", entries[0].ContextMap())
	}
}
