package index

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/vector"
)

// Compile-time check: Qdrant implements Index.
var _ Index = (*Qdrant)(nil)

// qdrantClient is the subset of *qdrant.Client the index uses.
type qdrantClient interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
}

// QdrantConfig points at a collection whose numeric point ids are embedding row numbers.
type QdrantConfig struct {
	Addr       string
	APIKey     string
	UseTLS     bool
	Collection string
	Dim        int
}

// Qdrant serves coarse retrieval from a remote Qdrant collection.
type Qdrant struct {
	client     qdrantClient
	closer     func() error
	collection string
	size       int
	dim        int
}

// NewQdrant connects and counts the collection so Len is available without a round-trip.
func NewQdrant(ctx context.Context, cfg QdrantConfig) (*Qdrant, error) {
	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		host = cfg.Addr
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant addr: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	q, err := newQdrant(ctx, client, cfg.Collection, cfg.Dim)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	q.closer = client.Close
	return q, nil
}

func newQdrant(ctx context.Context, c qdrantClient, collection string, dim int) (*Qdrant, error) {
	n, err := c.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", collection, err)
	}
	return &Qdrant{client: c, collection: collection, size: int(n), dim: dim}, nil
}

// Len returns the point count observed at connect time.
func (q *Qdrant) Len() int { return q.size }

// Dim returns the configured vector dimension.
func (q *Qdrant) Dim() int { return q.dim }

// Close releases the gRPC connection.
func (q *Qdrant) Close() error {
	if q.closer == nil {
		return nil
	}
	return q.closer()
}

// Search queries the collection. Points without a numeric id are skipped.
func (q *Qdrant) Search(ctx context.Context, query []float32, n int) ([]vector.Hit, error) {
	if n <= 0 {
		return nil, nil
	}
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(n)),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query %s: %w: %w", q.collection, domain.ErrIndexUnavailable, err)
	}

	hits := make([]vector.Hit, 0, len(points))
	for _, p := range points {
		if p.GetId() == nil {
			continue
		}
		if _, ok := p.GetId().GetPointIdOptions().(*qdrant.PointId_Num); !ok {
			continue
		}
		hits = append(hits, vector.Hit{Row: int(p.GetId().GetNum()), Score: p.GetScore()})
	}
	return hits, nil
}
