package index

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/medsearch/internal/domain"
)

type fakeQdrant struct {
	points   []*qdrant.ScoredPoint
	count    uint64
	queryErr error
	lastReq  *qdrant.QueryPoints
}

func (f *fakeQdrant) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.lastReq = req
	return f.points, f.queryErr
}

func (f *fakeQdrant) Count(_ context.Context, _ *qdrant.CountPoints) (uint64, error) {
	return f.count, nil
}

func TestQdrant_Search(t *testing.T) {
	fake := &fakeQdrant{
		count: 10,
		points: []*qdrant.ScoredPoint{
			{Id: qdrant.NewIDNum(7), Score: 0.9},
			{Id: qdrant.NewIDUUID("4a1c9c3e-0000-0000-0000-000000000000"), Score: 0.8},
			{Id: qdrant.NewIDNum(2), Score: 0.5},
		},
	}
	q, err := newQdrant(context.Background(), fake, "medquad", 384)
	if err != nil {
		t.Fatal(err)
	}
	if q.Len() != 10 || q.Dim() != 384 {
		t.Errorf("len/dim = %d/%d", q.Len(), q.Dim())
	}

	hits, err := q.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Row != 7 || hits[1].Row != 2 {
		t.Errorf("unexpected hits: %+v", hits)
	}
	if fake.lastReq.GetCollectionName() != "medquad" || fake.lastReq.GetLimit() != 3 {
		t.Errorf("unexpected request: %+v", fake.lastReq)
	}
}

func TestQdrant_SearchError(t *testing.T) {
	fake := &fakeQdrant{queryErr: errors.New("unavailable")}
	q, _ := newQdrant(context.Background(), fake, "c", 2)
	if _, err := q.Search(context.Background(), []float32{1, 0}, 1); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}
