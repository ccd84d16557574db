package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

func TestRerank_TEI_MapsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req teiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "eye disease" || len(req.Texts) != 3 {
			t.Errorf("unexpected request: %+v", req)
		}
		// sorted by score, not by input order
		_, _ = w.Write([]byte(`[{"index":1,"score":0.9},{"index":2,"score":0.5},{"index":0,"score":0.1}]`))
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	scores, err := c.Rerank(context.Background(), "eye disease", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.1, 0.9, 0.5}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("scores[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
}

func TestRerank_Cohere(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing auth header")
		}
		var req cohereRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "rerank-v3.5" || len(req.Documents) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.7},{"index":0,"relevance_score":0.2}]}`))
	}))
	defer server.Close()

	c, _ := New(Config{BaseURL: server.URL + "/", APIKey: "secret", Model: "rerank-v3.5", Format: FormatCohere})
	scores, err := c.Rerank(context.Background(), "q", []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	if scores[0] != 0.2 || scores[1] != 0.7 {
		t.Errorf("unexpected scores: %v", scores)
	}
}

func TestRerank_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusInternalServerError, `oops`},
		{"bad json", http.StatusOK, `{not json`},
		{"missing index", http.StatusOK, `[{"index":0,"score":1}]`},
		{"out of range", http.StatusOK, `[{"index":0,"score":1},{"index":5,"score":1}]`},
		{"duplicate", http.StatusOK, `[{"index":0,"score":1},{"index":0,"score":2}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, _ := New(Config{BaseURL: server.URL})
			_, err := c.Rerank(context.Background(), "q", []string{"a", "b"})
			if !errors.Is(err, domain.ErrRerankerError) {
				t.Fatalf("expected ErrRerankerError, got %v", err)
			}
		})
	}
}

func TestRerank_EmptyInputSkipsRequest(t *testing.T) {
	c, _ := New(Config{BaseURL: "http://127.0.0.1:1"})
	scores, err := c.Rerank(context.Background(), "q", nil)
	if err != nil || scores != nil {
		t.Fatalf("expected nil, nil; got %v, %v", scores, err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing base url")
	}
	if _, err := New(Config{BaseURL: "http://x", Format: "grpc"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
