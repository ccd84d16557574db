package generation

import (
	"context"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

// Backend sends one prompt to a language model and returns its text.
type Backend interface {
	Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error)
}
