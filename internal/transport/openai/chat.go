package openai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

// ChatBackend sends single-turn prompts to an OpenAI-compatible chat completions
// endpoint (OpenAI, Gemini's OpenAI endpoint, vLLM...). TopK has no field in the
// chat API: it is not transmitted, and the first request carrying one logs a warning.
type ChatBackend struct {
	client     *openai.Client
	model      string
	logger     *zap.Logger
	topKNotice sync.Once
}

// NewChatBackend creates a chat backend. Model is required.
func NewChatBackend(cfg *Config) (*ChatBackend, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("chat model is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatBackend{client: newClient(cfg), model: cfg.Model, logger: logger}, nil
}

func (c *ChatBackend) warnTopK(topK int) {
	if topK <= 0 {
		return
	}
	c.topKNotice.Do(func() {
		c.logger.Warn("top_k is not supported by the chat completions API and is not sent",
			zap.String("model", c.model),
			zap.Int("top_k", topK),
		)
	})
}

// Complete sends prompt as one user message and returns the first choice's text.
func (c *ChatBackend) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	c.warnTopK(opts.TopK)
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError("chat", err, domain.ErrGenerationError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices: %w", domain.ErrGenerationError)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat response is empty (finish_reason=%s): %w",
			resp.Choices[0].FinishReason, domain.ErrGenerationError)
	}
	c.logger.Debug("chat completion",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return text, nil
}
