package document

import (
	"fmt"
	"strings"
)

// MaxIDLength is the maximum document identifier length.
const MaxIDLength = 256

// Document is a medical document loaded from the offline collection (immutable value object).
// Source and topic are optional; their presence is tracked explicitly.
type Document struct {
	id        string
	text      string
	source    string
	hasSource bool
	topic     string
	hasTopic  bool
}

// Option sets an optional document attribute.
type Option func(*Document)

// WithSource attaches the publishing source (e.g. "NIH", "CDC").
func WithSource(source string) Option {
	return func(d *Document) {
		d.source = source
		d.hasSource = true
	}
}

// WithTopic attaches the topic / focus area.
func WithTopic(topic string) Option {
	return func(d *Document) {
		d.topic = topic
		d.hasTopic = true
	}
}

// New validates and creates a Document.
// ID: non-empty after trimming, max 256 chars, no surrounding whitespace. Text: non-empty.
func New(id, text string, opts ...Option) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if id != strings.TrimSpace(id) {
		return Document{}, fmt.Errorf("document ID %q has surrounding whitespace", id)
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("document %q has empty text", id)
	}

	d := Document{id: id, text: text}
	for _, o := range opts {
		o(&d)
	}
	return d, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Text returns the document body.
func (d *Document) Text() string { return d.text }

// Source returns the publishing source and whether it is set.
func (d *Document) Source() (string, bool) { return d.source, d.hasSource }

// Topic returns the topic / focus area and whether it is set.
func (d *Document) Topic() (string, bool) { return d.topic, d.hasTopic }
