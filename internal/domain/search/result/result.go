package result

import "github.com/kailas-cloud/medsearch/internal/domain/document"

// Candidate is a single search hit hydrated against the document store.
// Score is the coarse index similarity; RerankScore is set only when the cross-encoder ran.
type Candidate struct {
	doc         document.Document
	score       float64
	rerankScore float64
	reranked    bool
	rank        int
}

// New creates a candidate at the given 1-based rank with its coarse score.
func New(doc document.Document, score float64, rank int) Candidate {
	return Candidate{doc: doc, score: score, rank: rank}
}

// DocID returns the document identifier.
func (c *Candidate) DocID() string { return c.doc.ID() }

// Text returns the document text.
func (c *Candidate) Text() string { return c.doc.Text() }

// Source returns the document source and whether it is set.
func (c *Candidate) Source() (string, bool) { return c.doc.Source() }

// Topic returns the document topic and whether it is set.
func (c *Candidate) Topic() (string, bool) { return c.doc.Topic() }

// Score returns the coarse similarity from the vector index.
func (c *Candidate) Score() float64 { return c.score }

// RerankScore returns the cross-encoder score and whether reranking was applied.
func (c *Candidate) RerankScore() (float64, bool) { return c.rerankScore, c.reranked }

// Rank returns the 1-based position in the result set.
func (c *Candidate) Rank() int { return c.rank }

// AuthoritativeScore returns the score that determined ordering:
// the rerank score when present, else the coarse score.
func (c *Candidate) AuthoritativeScore() float64 {
	if c.reranked {
		return c.rerankScore
	}
	return c.score
}

// WithRerankScore returns a copy carrying a cross-encoder score.
func (c Candidate) WithRerankScore(s float64) Candidate {
	c.rerankScore = s
	c.reranked = true
	return c
}

// WithRank returns a copy at the given 1-based rank.
func (c Candidate) WithRank(rank int) Candidate {
	c.rank = rank
	return c
}
