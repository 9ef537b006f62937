package sparse

import (
	"math"
	"testing"
)

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	tokens := tokenize("The Transformer is a model, x y BERT_base 2018")
	want := []string{"transformer", "model", "bert_base", "2018"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", tokens, want)
		}
	}
}

func TestSearchRanksMatchingDocumentFirst(t *testing.T) {
	idx := Build([]string{
		"recurrent networks process tokens sequentially",
		"the transformer relies entirely on attention",
		"convolution kernels slide over images",
	})
	hits := idx.Search("transformer attention", 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Index != 1 {
		t.Fatalf("expected doc 1 first, got %+v", hits)
	}
	if math.Abs(hits[0].Score) > 1+1e-9 || hits[0].Score <= 0 {
		t.Fatalf("cosine score out of range: %v", hits[0].Score)
	}
	if hits[1].Score != 0 {
		t.Fatalf("expected zero score for unmatched doc, got %v", hits[1].Score)
	}
}

func TestSearchKLargerThanCorpus(t *testing.T) {
	idx := Build([]string{"alpha beta", "gamma delta"})
	hits := idx.Search("alpha", 10)
	if len(hits) != 2 {
		t.Fatalf("expected min(k, n)=2 hits, got %d", len(hits))
	}
}

func TestSearchTiesBrokenByAscendingIndex(t *testing.T) {
	idx := Build([]string{"encoder layer", "decoder layer", "encoder layer"})
	hits := idx.Search("unknownterm", 3)
	for i, h := range hits {
		if h.Index != i {
			t.Fatalf("expected ascending index order on ties, got %+v", hits)
		}
	}
	hits = idx.Search("encoder", 3)
	if hits[0].Index != 0 || hits[1].Index != 2 {
		t.Fatalf("expected equal-score docs 0 then 2, got %+v", hits)
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	idx := Build(nil)
	if hits := idx.Search("anything", 5); len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v", hits)
	}
}

func TestRowsAreUnitLength(t *testing.T) {
	idx := Build([]string{"attention attention heads", "multi head attention layer norm"})
	norms := make([]float64, idx.Len())
	for _, list := range idx.postings {
		for _, p := range list {
			norms[p.doc] += p.weight * p.weight
		}
	}
	for d, n := range norms {
		if math.Abs(n-1) > 1e-9 {
			t.Fatalf("doc %d squared norm = %v", d, n)
		}
	}
}
