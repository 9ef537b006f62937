package usecase

import (
	"strings"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const (
	DefaultAssumedRelevant = 3.0
	precisionWindow        = 5
	recallWindow           = 10
)

// DefaultRubrics is the canonical question table for the attention and BERT
// papers. Table order decides which rubric a substring query lands on.
func DefaultRubrics() []domain.Rubric {
	return []domain.Rubric{
		{
			ID:       "Q1",
			Question: "What is the Transformer architecture and how does it differ from RNNs/CNNs?",
			MustHave: []string{"transformer", "architecture", "recurrence", "convolution"},
			Optional: []string{"attention", "sequential", "parallel"},
		},
		{
			ID:       "Q2",
			Question: "How does BERT use the Transformer encoder?",
			MustHave: []string{"bert", "encoder", "bidirectional", "transformer"},
			Optional: []string{"masked", "lm", "pre-training"},
		},
		{
			ID:       "Q3",
			Question: "Describe the difference between the 'base' and 'large' models.",
			MustHave: []string{"base", "large", "parameter", "layer"},
			Optional: []string{"dimension", "head", "performance"},
		},
	}
}

// Evaluator scores evidence lists with keyword rubrics. Precision@5 always
// divides by 5, so short lists score lower.
type Evaluator struct {
	rubrics         []domain.Rubric
	assumedRelevant float64
}

func NewEvaluator(rubrics []domain.Rubric, assumedRelevant float64) *Evaluator {
	if rubrics == nil {
		rubrics = DefaultRubrics()
	}
	if assumedRelevant <= 0 {
		assumedRelevant = DefaultAssumedRelevant
	}
	return &Evaluator{
		rubrics:         rubrics,
		assumedRelevant: assumedRelevant,
	}
}

func (e *Evaluator) Rubrics() []domain.Rubric {
	out := make([]domain.Rubric, len(e.rubrics))
	copy(out, e.rubrics)
	return out
}

// Evaluate returns the not-evaluable sentinel for a blank query or one that
// matches no rubric.
func (e *Evaluator) Evaluate(query string, evidence []domain.EvidenceItem) domain.Evaluation {
	rubric, ok := e.match(query)
	if !ok {
		return domain.NotEvaluated()
	}

	keywords := make([]string, 0, len(rubric.MustHave))
	for _, kw := range rubric.MustHave {
		if kw = strings.ToLower(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	relevantAt5, relevantAt10 := 0, 0
	for i, item := range evidence {
		if i >= recallWindow {
			break
		}
		if !containsAny(strings.ToLower(item.Content), keywords) {
			continue
		}
		relevantAt10++
		if i < precisionWindow {
			relevantAt5++
		}
	}

	recall := float64(relevantAt10) / e.assumedRelevant
	if recall > 1 {
		recall = 1
	}
	return domain.Evaluation{
		RubricID:     rubric.ID,
		PrecisionAt5: float64(relevantAt5) / precisionWindow,
		RecallAt10:   recall,
	}
}

func (e *Evaluator) match(query string) (domain.Rubric, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.Rubric{}, false
	}
	for _, rubric := range e.rubrics {
		question := strings.ToLower(rubric.Question)
		if q == question || strings.Contains(question, q) {
			return rubric, true
		}
	}
	return domain.Rubric{}, false
}

func containsAny(content string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}
