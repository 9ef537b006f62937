package domain

import (
	"fmt"
	"sort"
	"strings"
)

type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

type Method string

const (
	MethodSparse Method = "sparse"
	MethodDense  Method = "dense"
	MethodHybrid Method = "hybrid"
	MethodRerank Method = "rerank"
)

var Methods = []Method{MethodSparse, MethodDense, MethodHybrid, MethodRerank}

func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MethodSparse, MethodDense, MethodHybrid, MethodRerank:
		return m, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse method", fmt.Errorf("unknown retrieval method %q", raw))
	}
}

// ScoredHit points into a corpus slice. Scores are only comparable within one list.
type ScoredHit struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// EvidenceItem is one fused result. Path is empty for text evidence.
type EvidenceItem struct {
	Modality   Modality `json:"modality"`
	ID         string   `json:"id"`
	FusedScore float64  `json:"fused_score"`
	Content    string   `json:"content"`
	Path       string   `json:"path,omitempty"`
	DocID      string   `json:"doc_id,omitempty"`
	PageNum    int      `json:"page_num,omitempty"`
}

type RetrieveRequest struct {
	Query        string  `json:"query"`
	TopKText     int     `json:"top_k_text"`
	TopKImages   int     `json:"top_k_images"`
	TopKEvidence int     `json:"top_k_evidence"`
	Alpha        float64 `json:"alpha"`
	Method       Method  `json:"method"`
}

func (r RetrieveRequest) Validate() error {
	if r.TopKText < 0 || r.TopKImages < 0 || r.TopKEvidence < 0 {
		return WrapError(ErrInvalidInput, "validate retrieve request", fmt.Errorf("top-k values must be non-negative"))
	}
	if !(r.Alpha >= 0 && r.Alpha <= 1) {
		return WrapError(ErrInvalidInput, "validate retrieve request", fmt.Errorf("alpha %v outside [0,1]", r.Alpha))
	}
	if _, err := ParseMethod(string(r.Method)); err != nil {
		return err
	}
	return nil
}

// Capabilities reports which optional retrieval subsystems are live.
type Capabilities struct {
	HasDense  bool `json:"has_dense"`
	HasRerank bool `json:"has_rerank"`
}

type CorpusStats struct {
	Pages      int `json:"pages"`
	TextChunks int `json:"text_chunks"`
	Images     int `json:"images"`
}

func EvidenceIDs(items []EvidenceItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

// TopHits ranks scores descending, ties by ascending index, and keeps at most k.
func TopHits(scores []float64, k int) []ScoredHit {
	if k <= 0 || len(scores) == 0 {
		return nil
	}
	hits := make([]ScoredHit, len(scores))
	for i, s := range scores {
		hits[i] = ScoredHit{Index: i, Score: s}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
