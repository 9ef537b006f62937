package usecase

import (
	"context"
	"sort"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const hybridWeight = 0.5

func (e *Engine) retrieveText(ctx context.Context, snap *snapshot, query string, k int, method domain.Method) []domain.ScoredHit {
	if k <= 0 {
		return nil
	}
	caps := e.capabilities(snap)

	switch method {
	case domain.MethodSparse:
		return snap.textIndex.Search(query, k)

	case domain.MethodDense:
		if !caps.HasDense {
			return nil
		}
		return e.denseSearch(ctx, snap, query, k)

	case domain.MethodHybrid:
		sparseHits := snap.textIndex.Search(query, 2*k)
		var denseHits []domain.ScoredHit
		if caps.HasDense {
			denseHits = e.denseSearch(ctx, snap, query, 2*k)
		}
		return combineHybrid(sparseHits, denseHits, len(snap.chunks), k)

	case domain.MethodRerank:
		sparseHits := snap.textIndex.Search(query, 2*k)
		var denseHits []domain.ScoredHit
		if caps.HasDense {
			denseHits = e.denseSearch(ctx, snap, query, 2*k)
		}
		pool := unionHits(sparseHits, denseHits)
		if !caps.HasRerank {
			return trimHits(pool, k)
		}
		reranked, err := RerankHits(ctx, e.reranker, query, pool, func(i int) string { return snap.chunks[i].Text }, k)
		if err != nil {
			e.logger.Warn("rerank_degraded", "error", err, "candidates", len(pool))
		}
		return reranked

	default:
		return nil
	}
}

func (e *Engine) denseSearch(ctx context.Context, snap *snapshot, query string, k int) []domain.ScoredHit {
	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		e.logger.Warn("dense_query_degraded", "error", err)
		return nil
	}
	return snap.dense.Search(vec, k)
}

// combineHybrid sums 0.5-weighted min-max scores over an array indexed by
// corpus id, so the output order never depends on map iteration.
func combineHybrid(sparseHits, denseHits []domain.ScoredHit, corpusSize, k int) []domain.ScoredHit {
	combined := make([]float64, corpusSize)
	present := make([]bool, corpusSize)
	for _, list := range [][]domain.ScoredHit{NormalizeMinMax(sparseHits), NormalizeMinMax(denseHits)} {
		for _, h := range list {
			combined[h.Index] += hybridWeight * h.Score
			present[h.Index] = true
		}
	}

	out := make([]domain.ScoredHit, 0, len(sparseHits)+len(denseHits))
	for idx, ok := range present {
		if ok {
			out = append(out, domain.ScoredHit{Index: idx, Score: combined[idx]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return trimHits(out, k)
}

// unionHits keeps first-seen order: sparse ranking, then dense-only hits.
// Scores are zeroed; they are placeholders until reranked.
func unionHits(lists ...[]domain.ScoredHit) []domain.ScoredHit {
	seen := make(map[int]struct{})
	out := make([]domain.ScoredHit, 0)
	for _, list := range lists {
		for _, h := range list {
			if _, ok := seen[h.Index]; ok {
				continue
			}
			seen[h.Index] = struct{}{}
			out = append(out, domain.ScoredHit{Index: h.Index})
		}
	}
	return out
}

func trimHits(hits []domain.ScoredHit, limit int) []domain.ScoredHit {
	if limit <= 0 {
		return nil
	}
	if len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}
