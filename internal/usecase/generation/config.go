package generation

import (
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

// Messages are the fixed user-facing strings. Defaults are French, matching the
// default target language.
type Messages struct {
	NotConfigured      string
	AnswerFailed       string
	SummaryUnavailable string
	SummaryFailed      string
	Disclaimer         string
	UnknownSource      string
}

// DefaultMessages returns the French strings.
func DefaultMessages() Messages {
	return Messages{
		NotConfigured:      "Le service de génération n'est pas disponible. Voici les documents trouvés.",
		AnswerFailed:       "Désolé, une erreur s'est produite lors de la génération de la réponse. Voici les documents pertinents que j'ai trouvés.",
		SummaryUnavailable: "Service de résumé non disponible.",
		SummaryFailed:      "Impossible de générer un résumé pour le moment.",
		Disclaimer:         "Note : cette information est à but éducatif. Consultez toujours un professionnel de santé qualifié.",
		UnknownSource:      "Source inconnue",
	}
}

// Config holds prompt shaping and decoding policy.
type Config struct {
	Model    string
	Language string

	// ContextChars bounds each document's text inside the prompt.
	ContextChars int
	// ExcerptChars bounds the excerpt returned with each source.
	ExcerptChars int

	AnswerTimeout   time.Duration
	SummaryTimeout  time.Duration
	SimplifyTimeout time.Duration

	Answer   domain.CompletionOptions
	Summary  domain.CompletionOptions
	Simplify domain.CompletionOptions

	Messages Messages
}

// DefaultConfig returns the production decoding policy.
func DefaultConfig() Config {
	return Config{
		Language:        "French",
		ContextChars:    2000,
		ExcerptChars:    200,
		AnswerTimeout:   90 * time.Second,
		SummaryTimeout:  30 * time.Second,
		SimplifyTimeout: 60 * time.Second,
		Answer:          domain.CompletionOptions{Temperature: 0.7, TopP: 0.9, TopK: 40, MaxTokens: 2048},
		Summary:         domain.CompletionOptions{Temperature: 0.5, MaxTokens: 150},
		Simplify:        domain.CompletionOptions{Temperature: 0.3, MaxTokens: 1024},
		Messages:        DefaultMessages(),
	}
}
