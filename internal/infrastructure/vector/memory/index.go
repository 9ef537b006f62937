package memory

import (
	"fmt"
	"math"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

// Index keeps unit-normalised embeddings; chunk i ↔ vectors[i].
type Index struct {
	vectors   [][]float32
	dimension int
}

type Indexer struct{}

func NewIndexer() Indexer { return Indexer{} }

func (Indexer) Build(vectors [][]float32) (ports.DenseIndex, error) {
	idx, err := Build(vectors)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func Build(vectors [][]float32) (*Index, error) {
	idx := &Index{vectors: make([][]float32, len(vectors))}
	for i, v := range vectors {
		if i == 0 {
			idx.dimension = len(v)
		}
		if len(v) != idx.dimension {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build dense index",
				fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), idx.dimension))
		}
		idx.vectors[i] = unit(v)
	}
	return idx, nil
}

func (idx *Index) Len() int { return len(idx.vectors) }

func (idx *Index) Dimension() int { return idx.dimension }

// Search scores every stored vector by cosine similarity. A query of the
// wrong dimension matches nothing.
func (idx *Index) Search(query []float32, k int) []domain.ScoredHit {
	if len(idx.vectors) == 0 || k <= 0 || len(query) != idx.dimension {
		return nil
	}
	q := unit(query)
	scores := make([]float64, len(idx.vectors))
	for i, v := range idx.vectors {
		scores[i] = dot(q, v)
	}
	return domain.TopHits(scores, k)
}

// CosineSimilarity returns a value in [-1, 1]; 0 when either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return dot(unit(a), unit(b))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func unit(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
