package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

// QueryObserver receives one callback per completed round trip.
type QueryObserver interface {
	ObserveQuery(method domain.Method, latency time.Duration, evidence int, eval domain.Evaluation)
}

type QueryUseCase struct {
	retriever ports.EvidenceRetriever
	generator ports.AnswerGenerator
	evaluator ports.EvidenceEvaluator
	sink      ports.InteractionLogger
	observer  QueryObserver
	logger    *slog.Logger
	now       func() time.Time
}

func NewQueryUseCase(
	retriever ports.EvidenceRetriever,
	generator ports.AnswerGenerator,
	evaluator ports.EvidenceEvaluator,
	sink ports.InteractionLogger,
	observer QueryObserver,
	logger *slog.Logger,
) *QueryUseCase {
	if generator == nil {
		generator = NewExtractiveGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryUseCase{
		retriever: retriever,
		generator: generator,
		evaluator: evaluator,
		sink:      sink,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *QueryUseCase) Ask(ctx context.Context, req domain.RetrieveRequest) (*domain.QueryResult, error) {
	started := uc.now()

	evidence, err := uc.retriever.Retrieve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}

	answer, err := uc.generator.GenerateAnswer(ctx, req.Query, evidence)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	eval := domain.NotEvaluated()
	if uc.evaluator != nil {
		eval = uc.evaluator.Evaluate(req.Query, evidence)
	}
	latency := uc.now().Sub(started)

	method, _ := domain.ParseMethod(string(req.Method))
	result := &domain.QueryResult{
		Query:      req.Query,
		Method:     method,
		Answer:     answer,
		Evidence:   evidence,
		Evaluation: eval,
		Latency:    latency,
	}

	if uc.observer != nil {
		uc.observer.ObserveQuery(method, latency, len(evidence), eval)
	}
	uc.record(ctx, result, started)
	return result, nil
}

// record never fails the query; sink errors are only logged.
func (uc *QueryUseCase) record(ctx context.Context, result *domain.QueryResult, started time.Time) {
	if uc.sink == nil {
		return
	}
	interaction := domain.Interaction{
		ID:           uuid.NewString(),
		Timestamp:    started.UTC(),
		Query:        result.Query,
		Mode:         result.Method,
		LatencySec:   result.Latency.Seconds(),
		PrecisionAt5: result.Evaluation.PrecisionAt5,
		RecallAt10:   result.Evaluation.RecallAt10,
		EvidenceIDs:  domain.EvidenceIDs(result.Evidence),
	}
	if err := uc.sink.Record(ctx, interaction); err != nil {
		uc.logger.Warn("interaction_log_failed", "interaction_id", interaction.ID, "error", err)
	}
}
