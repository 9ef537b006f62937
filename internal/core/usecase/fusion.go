package usecase

import (
	"math"
	"sort"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const uniformScoreEpsilon = 1e-12

// NormalizeMinMax rescales one list into [0,1] by its own extremes. A list
// whose scores are all within 1e-12 maps entirely to 1.0.
func NormalizeMinMax(hits []domain.ScoredHit) []domain.ScoredHit {
	if len(hits) == 0 {
		return nil
	}
	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		lo = math.Min(lo, h.Score)
		hi = math.Max(hi, h.Score)
	}

	out := make([]domain.ScoredHit, len(hits))
	span := hi - lo
	for i, h := range hits {
		score := 1.0
		if math.Abs(span) >= uniformScoreEpsilon {
			score = (h.Score - lo) / span
		}
		out[i] = domain.ScoredHit{Index: h.Index, Score: score}
	}
	return out
}

// Fuse weights normalised text hits by alpha and image hits by 1-alpha,
// merges them (text first), sorts by fused score and keeps limit items.
func Fuse(
	chunks []domain.TextChunk,
	images []domain.ImageItem,
	textHits, imageHits []domain.ScoredHit,
	alpha float64,
	limit int,
) []domain.EvidenceItem {
	fused := make([]domain.EvidenceItem, 0, len(textHits)+len(imageHits))
	for _, h := range NormalizeMinMax(textHits) {
		ch := chunks[h.Index]
		fused = append(fused, domain.EvidenceItem{
			Modality:   domain.ModalityText,
			ID:         ch.ChunkID,
			FusedScore: alpha * h.Score,
			Content:    ch.Text,
			DocID:      ch.DocID,
			PageNum:    ch.PageNum,
		})
	}
	for _, h := range NormalizeMinMax(imageHits) {
		it := images[h.Index]
		fused = append(fused, domain.EvidenceItem{
			Modality:   domain.ModalityImage,
			ID:         it.ItemID,
			FusedScore: (1 - alpha) * h.Score,
			Content:    it.Caption,
			Path:       it.Path,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusedScore > fused[j].FusedScore
	})
	if limit <= 0 {
		return []domain.EvidenceItem{}
	}
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
