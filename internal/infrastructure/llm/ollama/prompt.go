package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const maxEvidenceRunes = 1200

func buildAnswerPrompt(question string, evidence []domain.EvidenceItem) string {
	var b strings.Builder
	for idx, item := range evidence {
		content := item.Content
		if r := []rune(content); len(r) > maxEvidenceRunes {
			content = string(r[:maxEvidenceRunes])
		}
		switch item.Modality {
		case domain.ModalityImage:
			fmt.Fprintf(&b, "[%d] figure=%s score=%.3f\ncaption: %s\n\n", idx+1, item.ID, item.FusedScore, content)
		default:
			fmt.Fprintf(&b, "[%d] doc=%s page=%d score=%.3f\n%s\n\n", idx+1, item.DocID, item.PageNum, item.FusedScore, content)
		}
	}

	return fmt.Sprintf(`Answer the question using only the evidence below.
Cite evidence by its [number]. If the evidence is insufficient, say so directly.

Question:
%s

Evidence:
%s`, question, b.String())
}
