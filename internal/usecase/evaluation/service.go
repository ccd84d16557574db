// Package evaluation measures retrieval quality (Recall@K and MRR@K) against
// relevance judgments, with reranking disabled.
package evaluation

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/medsearch/internal/domain/search/request"
	"github.com/kailas-cloud/medsearch/internal/usecase/search"
)

// Searcher runs the retrieval pipeline.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (search.Outcome, error)
}

// Query is one evaluation query.
type Query struct {
	ID   string
	Text string
}

// Qrels maps a query id to its relevant document ids.
type Qrels map[string][]string

// Report holds averaged metrics. Queries without judgments are skipped, not scored as zero.
type Report struct {
	K         int
	Evaluated int
	Skipped   int
	Recall    float64
	MRR       float64
}

// Evaluate runs every judged query at top-k without reranking.
// progress, if non-nil, is called once per input query.
func Evaluate(ctx context.Context, s Searcher, queries []Query, qrels Qrels, k int, progress func()) (Report, error) {
	rep := Report{K: k}
	var recallSum, mrrSum float64

	for _, q := range queries {
		if progress != nil {
			progress()
		}
		relevant, ok := qrels[q.ID]
		if !ok {
			rep.Skipped++
			continue
		}

		req, err := request.New(q.Text, k, false, false)
		if err != nil {
			return Report{}, fmt.Errorf("query %s: %w", q.ID, err)
		}
		out, err := s.Search(ctx, req)
		if err != nil {
			return Report{}, fmt.Errorf("query %s: %w", q.ID, err)
		}

		retrieved := make([]string, len(out.Candidates))
		for i := range out.Candidates {
			retrieved[i] = out.Candidates[i].DocID()
		}
		recallSum += Recall(retrieved, relevant)
		mrrSum += ReciprocalRank(retrieved, relevant)
		rep.Evaluated++
	}

	if rep.Evaluated > 0 {
		rep.Recall = recallSum / float64(rep.Evaluated)
		rep.MRR = mrrSum / float64(rep.Evaluated)
	}
	return rep, nil
}

// Recall is the fraction of distinct relevant ids present in retrieved.
// An empty relevant set scores zero.
func Recall(retrieved, relevant []string) float64 {
	rel := toSet(relevant)
	if len(rel) == 0 {
		return 0
	}
	hit := 0
	for id := range toSet(retrieved) {
		if _, ok := rel[id]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(rel))
}

// ReciprocalRank is 1/rank of the first relevant id in retrieved, or zero.
func ReciprocalRank(retrieved, relevant []string) float64 {
	rel := toSet(relevant)
	for i, id := range retrieved {
		if _, ok := rel[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
