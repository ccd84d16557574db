// Package rerank is an HTTP client for hosted cross-encoder rerankers.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

// Wire formats.
const (
	// FormatTEI is Hugging Face text-embeddings-inference: POST /rerank
	// {"query","texts","raw_scores"} -> [{"index","score"}].
	FormatTEI = "tei"
	// FormatCohere is the Cohere-compatible v1 API: POST /v1/rerank
	// {"query","documents","model"} -> {"results":[{"index","relevance_score"}]}.
	FormatCohere = "cohere"
)

// Config holds reranker endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Format  string
	Timeout time.Duration
}

// Client scores (query, passage) pairs in one batch request.
type Client struct {
	url    string
	apiKey string
	model  string
	format string
	client *http.Client
}

// New creates a reranker client. BaseURL is required; Format defaults to TEI.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("reranker base_url is required")
	}
	format := cfg.Format
	if format == "" {
		format = FormatTEI
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	var url string
	switch format {
	case FormatTEI:
		url = base + "/rerank"
	case FormatCohere:
		url = base + "/v1/rerank"
	default:
		return nil, fmt.Errorf("unknown reranker format %q", format)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:    url,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		format: format,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type teiRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type teiResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type cohereRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
}

type cohereResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank returns one score per text, aligned with the input order.
// The server may return results in any order; they are mapped back by index.
func (c *Client) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var payload any
	if c.format == FormatCohere {
		payload = cohereRequest{Query: query, Documents: texts, Model: c.model}
	} else {
		payload = teiRequest{Query: query, Texts: texts}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w: %w", domain.ErrRerankerError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w: %w", domain.ErrRerankerError, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker returned status %d: %s: %w",
			resp.StatusCode, truncate(string(raw), 200), domain.ErrRerankerError)
	}

	pairs, err := c.decode(raw)
	if err != nil {
		return nil, err
	}
	return alignScores(pairs, len(texts))
}

func (c *Client) decode(raw []byte) ([]teiResult, error) {
	if c.format == FormatCohere {
		var cr cohereResponse
		if err := json.Unmarshal(raw, &cr); err != nil {
			return nil, fmt.Errorf("parse rerank response: %w: %w", domain.ErrRerankerError, err)
		}
		out := make([]teiResult, len(cr.Results))
		for i, r := range cr.Results {
			out[i] = teiResult{Index: r.Index, Score: r.RelevanceScore}
		}
		return out, nil
	}
	var out []teiResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse rerank response: %w: %w", domain.ErrRerankerError, err)
	}
	return out, nil
}

// alignScores places each result at its input index. Every index must appear exactly once.
func alignScores(pairs []teiResult, n int) ([]float64, error) {
	scores := make([]float64, n)
	seen := make([]bool, n)
	for _, p := range pairs {
		if p.Index < 0 || p.Index >= n {
			return nil, fmt.Errorf("rerank index %d out of range [0,%d): %w", p.Index, n, domain.ErrRerankerError)
		}
		if seen[p.Index] {
			return nil, fmt.Errorf("rerank index %d returned twice: %w", p.Index, domain.ErrRerankerError)
		}
		seen[p.Index] = true
		scores[p.Index] = p.Score
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank response missing index %d: %w", i, domain.ErrRerankerError)
		}
	}
	return scores, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
