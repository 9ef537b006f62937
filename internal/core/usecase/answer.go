package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const (
	snippetRunes   = 200
	noEvidenceText = "I don't have enough information to answer that."
	extractiveNote = "(Note: This is an extractive baseline. Connect an LLM to generate fluent answers.)"
)

// ExtractiveGenerator lists the evidence instead of writing prose.
type ExtractiveGenerator struct{}

func NewExtractiveGenerator() *ExtractiveGenerator {
	return &ExtractiveGenerator{}
}

func (g *ExtractiveGenerator) GenerateAnswer(_ context.Context, _ string, evidence []domain.EvidenceItem) (string, error) {
	if len(evidence) == 0 {
		return noEvidenceText, nil
	}

	lines := make([]string, 0, len(evidence))
	for _, item := range evidence {
		if item.Modality == domain.ModalityText {
			lines = append(lines, "[TEXT] "+truncateRunes(item.Content, snippetRunes)+"...")
			continue
		}
		lines = append(lines, "[IMAGE] "+item.Content)
	}
	return "Based on the retrieved evidence:\n" + strings.Join(lines, "\n") + "\n\n" + extractiveNote, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
