package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

// ReportUseCase runs every rubric question under every retrieval method.
type ReportUseCase struct {
	retriever ports.EvidenceRetriever
	evaluator ports.EvidenceEvaluator
	now       func() time.Time
}

func NewReportUseCase(retriever ports.EvidenceRetriever, evaluator ports.EvidenceEvaluator) *ReportUseCase {
	return &ReportUseCase{retriever: retriever, evaluator: evaluator, now: time.Now}
}

// Compare uses base for every setting except Query and Method.
func (uc *ReportUseCase) Compare(ctx context.Context, base domain.RetrieveRequest) ([]domain.MethodComparison, error) {
	rubrics := uc.evaluator.Rubrics()
	rows := make([]domain.MethodComparison, 0, len(rubrics)*len(domain.Methods))

	for _, rubric := range rubrics {
		for _, method := range domain.Methods {
			req := base
			req.Query = rubric.Question
			req.Method = method

			started := uc.now()
			evidence, err := uc.retriever.Retrieve(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("retrieve %s/%s: %w", rubric.ID, method, err)
			}
			latency := uc.now().Sub(started)
			eval := uc.evaluator.Evaluate(rubric.Question, evidence)

			rows = append(rows, domain.MethodComparison{
				RubricID:     rubric.ID,
				Question:     rubric.Question,
				Method:       method,
				PrecisionAt5: eval.PrecisionAt5,
				RecallAt10:   eval.RecallAt10,
				LatencySec:   latency.Seconds(),
				EvidenceIDs:  domain.EvidenceIDs(evidence),
			})
		}
	}
	return rows, nil
}

func (uc *ReportUseCase) Write(ctx context.Context, base domain.RetrieveRequest, writer ports.ReportWriter) ([]domain.MethodComparison, error) {
	rows, err := uc.Compare(ctx, base)
	if err != nil {
		return nil, err
	}
	if err := writer.WriteComparison(ctx, rows); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return rows, nil
}
