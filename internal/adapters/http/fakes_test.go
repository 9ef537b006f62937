package httpadapter

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/usecase"
)

type retrieverFake struct {
	mu       sync.Mutex
	err      error
	evidence []domain.EvidenceItem
	requests []domain.RetrieveRequest
}

func (f *retrieverFake) Retrieve(_ context.Context, req domain.RetrieveRequest) ([]domain.EvidenceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.evidence, nil
}

func (f *retrieverFake) Capabilities() domain.Capabilities {
	return domain.Capabilities{HasDense: true}
}

func (f *retrieverFake) Stats() domain.CorpusStats {
	return domain.CorpusStats{Pages: 2, TextChunks: 4, Images: 1}
}

func (f *retrieverFake) calls() []domain.RetrieveRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RetrieveRequest(nil), f.requests...)
}

type queryFake struct {
	err error
}

func (f queryFake) Ask(_ context.Context, req domain.RetrieveRequest) (*domain.QueryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.QueryResult{Query: req.Query, Method: req.Method, Answer: "answer", Evaluation: domain.NotEvaluated()}, nil
}

type ingestFake struct {
	err error
}

func (f ingestFake) IngestCorpus(context.Context) (domain.CorpusStats, error) {
	if f.err != nil {
		return domain.CorpusStats{}, f.err
	}
	return domain.CorpusStats{Pages: 3, TextChunks: 9, Images: 2}, nil
}

type uploadFake struct{}

func (uploadFake) Upload(_ context.Context, filename string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}
	return filename, nil
}

func testConfig() config.Config {
	return config.Config{
		APIRequestValidation: true,
		TopKText:             5,
		TopKImages:           3,
		TopKEvidence:         6,
		Alpha:                0.5,
		RetrievalMethod:      "rerank",
	}
}

func newTestHandler(cfg config.Config, retriever *retrieverFake) http.Handler {
	if retriever == nil {
		retriever = &retrieverFake{}
	}
	return NewRouter(cfg, Services{
		Retriever: retriever,
		Evaluator: usecase.NewEvaluator(nil, 0),
		Queries:   queryFake{},
		Ingestor:  ingestFake{},
		Uploads:   uploadFake{},
	}, nil, nil).Handler()
}
