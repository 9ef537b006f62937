package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

// RerankHits scores every candidate against query and keeps the best k.
// Without a reranker, or when scoring fails, the candidates are returned in
// their original order truncated to k; the error is still reported.
func RerankHits(
	ctx context.Context,
	reranker ports.Reranker,
	query string,
	candidates []domain.ScoredHit,
	text func(int) string,
	k int,
) ([]domain.ScoredHit, error) {
	if len(candidates) == 0 || k <= 0 {
		return nil, nil
	}
	if reranker == nil {
		return trimHits(candidates, k), nil
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = text(c.Index)
	}
	scores, err := reranker.Score(ctx, query, passages)
	if err != nil {
		return trimHits(candidates, k), fmt.Errorf("rerank score: %w", err)
	}
	if len(scores) != len(candidates) {
		return trimHits(candidates, k), fmt.Errorf("rerank score: scores/candidates mismatch: %d/%d", len(scores), len(candidates))
	}

	ranked := make([]domain.ScoredHit, len(candidates))
	for i, c := range candidates {
		ranked[i] = domain.ScoredHit{Index: c.Index, Score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return trimHits(ranked, k), nil
}
