package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

type observerFake struct {
	method   domain.Method
	evidence int
}

func (f *observerFake) ObserveQuery(method domain.Method, _ time.Duration, evidence int, _ domain.Evaluation) {
	f.method = method
	f.evidence = evidence
}

type generatorFake struct{ err error }

func (f *generatorFake) GenerateAnswer(context.Context, string, []domain.EvidenceItem) (string, error) {
	return "answer", f.err
}

func askRequest(query string) domain.RetrieveRequest {
	return domain.RetrieveRequest{
		Query: query, TopKText: 3, TopKImages: 1, TopKEvidence: 4, Alpha: 0.5, Method: "SPARSE",
	}
}

func TestQueryUseCaseAskRecordsInteraction(t *testing.T) {
	engine := newTestEngine()
	ingestTestCorpus(engine)
	sink := &recordingSink{}
	observer := &observerFake{}
	uc := NewQueryUseCase(engine, nil, NewEvaluator(nil, 0), sink, observer, nil)

	res, err := uc.Ask(context.Background(), askRequest("How does BERT use the Transformer encoder?"))
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if res.Method != domain.MethodSparse {
		t.Fatalf("expected normalised method, got %q", res.Method)
	}
	if !res.Evaluation.Evaluable() || res.Evaluation.RubricID != "Q2" {
		t.Fatalf("expected Q2 evaluation, got %+v", res.Evaluation)
	}
	if len(res.Evidence) != 4 {
		t.Fatalf("expected 4 evidence items, got %d", len(res.Evidence))
	}
	if len(sink.got) != 1 {
		t.Fatalf("expected one interaction, got %d", len(sink.got))
	}
	in := sink.got[0]
	if in.ID == "" || in.Mode != domain.MethodSparse || len(in.EvidenceIDs) != 4 {
		t.Fatalf("unexpected interaction: %+v", in)
	}
	if in.PrecisionAt5 != res.Evaluation.PrecisionAt5 {
		t.Fatalf("interaction metrics differ from result")
	}
	if observer.method != domain.MethodSparse || observer.evidence != 4 {
		t.Fatalf("observer not notified: %+v", observer)
	}
}

func TestQueryUseCaseSinkFailureDoesNotFailQuery(t *testing.T) {
	engine := newTestEngine()
	ingestTestCorpus(engine)
	uc := NewQueryUseCase(engine, nil, nil, &recordingSink{err: errors.New("disk full")}, nil, nil)

	res, err := uc.Ask(context.Background(), askRequest("unrelated gibberish xyz"))
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if res.Evaluation.Evaluable() {
		t.Fatalf("expected sentinel evaluation without evaluator")
	}
}

func TestQueryUseCaseAskErrors(t *testing.T) {
	uc := NewQueryUseCase(newTestEngine(), nil, nil, nil, nil, nil)
	if _, err := uc.Ask(context.Background(), askRequest("bert")); !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	engine := newTestEngine()
	ingestTestCorpus(engine)
	uc = NewQueryUseCase(engine, &generatorFake{err: errors.New("llm down")}, nil, nil, nil, nil)
	if _, err := uc.Ask(context.Background(), askRequest("bert")); err == nil {
		t.Fatalf("expected generator error")
	}
}
