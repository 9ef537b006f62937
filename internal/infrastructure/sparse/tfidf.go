package sparse

import (
	"math"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

type posting struct {
	doc    int
	weight float64
}

// Index is an L2-normalised TF-IDF matrix stored as term postings.
type Index struct {
	vocab    map[string]int
	idf      []float64
	postings [][]posting
	docs     int
}

// termCounts keeps first-occurrence order so float sums are reproducible.
type termCounts struct {
	order []int
	freq  map[int]float64
}

type Indexer struct{}

func NewIndexer() Indexer { return Indexer{} }

func (Indexer) Build(docs []string) ports.SparseIndex {
	return Build(docs)
}

// Build fits vocabulary and smoothed idf (ln((1+n)/(1+df))+1) over docs.
func Build(docs []string) *Index {
	idx := &Index{vocab: make(map[string]int), docs: len(docs)}
	counts := make([]termCounts, len(docs))
	var df []int

	for d, text := range docs {
		tc := termCounts{freq: make(map[int]float64)}
		for _, tok := range tokenize(text) {
			term, ok := idx.vocab[tok]
			if !ok {
				term = len(idx.vocab)
				idx.vocab[tok] = term
				df = append(df, 0)
			}
			if tc.freq[term] == 0 {
				df[term]++
				tc.order = append(tc.order, term)
			}
			tc.freq[term]++
		}
		counts[d] = tc
	}

	n := float64(len(docs))
	idx.idf = make([]float64, len(df))
	for term, f := range df {
		idx.idf[term] = math.Log((1+n)/(1+float64(f))) + 1
	}

	idx.postings = make([][]posting, len(df))
	for d, tc := range counts {
		var norm float64
		for _, term := range tc.order {
			w := tc.freq[term] * idx.idf[term]
			norm += w * w
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for _, term := range tc.order {
			idx.postings[term] = append(idx.postings[term], posting{doc: d, weight: tc.freq[term] * idx.idf[term] / norm})
		}
	}
	return idx
}

func (idx *Index) Len() int { return idx.docs }

// Search returns min(k, Len()) hits by cosine score; unmatched documents score 0.
func (idx *Index) Search(query string, k int) []domain.ScoredHit {
	if idx.docs == 0 || k <= 0 {
		return nil
	}
	q := idx.vectorize(query)
	scores := make([]float64, idx.docs)
	for _, qt := range q {
		for _, p := range idx.postings[qt.term] {
			scores[p.doc] += qt.weight * p.weight
		}
	}
	return domain.TopHits(scores, k)
}

type queryTerm struct {
	term   int
	weight float64
}

func (idx *Index) vectorize(text string) []queryTerm {
	tc := termCounts{freq: make(map[int]float64)}
	for _, tok := range tokenize(text) {
		term, ok := idx.vocab[tok]
		if !ok {
			continue
		}
		if tc.freq[term] == 0 {
			tc.order = append(tc.order, term)
		}
		tc.freq[term]++
	}
	out := make([]queryTerm, 0, len(tc.order))
	var norm float64
	for _, term := range tc.order {
		w := tc.freq[term] * idx.idf[term]
		out = append(out, queryTerm{term: term, weight: w})
		norm += w * w
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i].weight /= norm
	}
	return out
}
