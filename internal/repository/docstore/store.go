// Package docstore holds the immutable in-memory document collection.
package docstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/document"
)

// CSV column names.
const (
	ColDocID     = "doc_id"
	ColText      = "text"
	ColSource    = "source"
	ColFocusArea = "focus_area"
)

// Store maps row positions and ids to documents. Read-only after construction.
type Store struct {
	ids  []string
	docs map[string]document.Document
}

// New builds a store from documents in row order. Duplicate ids are rejected.
func New(docs []document.Document) (*Store, error) {
	s := &Store{
		ids:  make([]string, 0, len(docs)),
		docs: make(map[string]document.Document, len(docs)),
	}
	for i, d := range docs {
		if _, dup := s.docs[d.ID()]; dup {
			return nil, fmt.Errorf("row %d: duplicate doc_id %q: %w", i, d.ID(), domain.ErrArtifactMismatch)
		}
		s.ids = append(s.ids, d.ID())
		s.docs[d.ID()] = d
	}
	return s, nil
}

// LoadCSV reads the document table from path.
func LoadCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open documents: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s, nil
}

// ReadCSV parses a header-first CSV. doc_id and text are required columns;
// source and focus_area are optional. doc_id is kept verbatim as a string.
// Any invalid row fails the whole load: skipping would shift row alignment.
func ReadCSV(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	idCol, ok := cols[ColDocID]
	if !ok {
		return nil, fmt.Errorf("missing required column %q", ColDocID)
	}
	textCol, ok := cols[ColText]
	if !ok {
		return nil, fmt.Errorf("missing required column %q", ColText)
	}
	srcCol, hasSrc := cols[ColSource]
	topicCol, hasTopic := cols[ColFocusArea]

	var docs []document.Document
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		var opts []document.Option
		if hasSrc && rec[srcCol] != "" {
			opts = append(opts, document.WithSource(rec[srcCol]))
		}
		if hasTopic && rec[topicCol] != "" {
			opts = append(opts, document.WithTopic(rec[topicCol]))
		}
		d, err := document.New(rec[idCol], rec[textCol], opts...)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		docs = append(docs, d)
	}
	return New(docs)
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[strings.ToLower(h)] = i
	}
	return cols
}

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.ids) }

// DocIDAt resolves a row position to its doc_id.
func (s *Store) DocIDAt(row int) (string, bool) {
	if row < 0 || row >= len(s.ids) {
		return "", false
	}
	return s.ids[row], true
}

// Get returns a document by id.
func (s *Store) Get(id string) (document.Document, error) {
	d, ok := s.docs[id]
	if !ok {
		return document.Document{}, domain.ErrDocumentNotFound
	}
	return d, nil
}
