package index

import (
	"container/heap"
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/vector"
)

// Compile-time check: Flat implements Index.
var _ Index = (*Flat)(nil)

// Flat is an exact brute-force inner-product index over an in-memory matrix.
type Flat struct {
	m *Matrix
}

// NewFlat wraps m. Rows are expected to be L2-normalized already.
func NewFlat(m *Matrix) (*Flat, error) {
	if m == nil || m.Cols <= 0 {
		return nil, fmt.Errorf("flat index: empty matrix: %w", domain.ErrArtifactMismatch)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("flat index: data length %d != %dx%d: %w",
			len(m.Data), m.Rows, m.Cols, domain.ErrArtifactMismatch)
	}
	return &Flat{m: m}, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return f.m.Rows }

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.m.Cols }

// Search returns the n rows with the highest inner product, best first.
// Ties are broken by lower row number.
func (f *Flat) Search(ctx context.Context, query []float32, n int) ([]vector.Hit, error) {
	if len(query) != f.m.Cols {
		return nil, fmt.Errorf("query dimension %d, index dimension %d: %w",
			len(query), f.m.Cols, domain.ErrIndexUnavailable)
	}
	if n <= 0 {
		return nil, nil
	}
	if n > f.m.Rows {
		n = f.m.Rows
	}

	h := make(hitHeap, 0, n)
	for row := range f.m.Rows {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("flat search: %w", err)
			}
		}
		hit := vector.Hit{Row: row, Score: vector.Dot(query, f.m.Row(row))}
		switch {
		case len(h) < n:
			heap.Push(&h, hit)
		case better(hit, h[0]):
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	out := []vector.Hit(h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out, nil
}

func better(a, b vector.Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Row < b.Row
}

// hitHeap is a min-heap: the root is the worst hit kept so far.
type hitHeap []vector.Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(vector.Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
