// Package openai adapts OpenAI-compatible embedding endpoints to ports.Embedder.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/paper-evidence/internal/infrastructure/resilience"
)

const (
	DefaultModel = openai.SmallEmbedding3
	defaultBatch = 64
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Batch   int
}

type Embedder struct {
	client   *openai.Client
	model    openai.EmbeddingModel
	batch    int
	executor *resilience.Executor
}

func NewEmbedder(cfg Config, executor *resilience.Executor) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: api key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	batch := cfg.Batch
	if batch <= 0 {
		batch = defaultBatch
	}
	return &Embedder{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		batch:    batch,
		executor: executor,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batch {
		end := min(start+e.batch, len(texts))
		vectors, err := e.create(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.create(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) create(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{Input: texts, Model: e.model}

	call := func(ctx context.Context) (openai.EmbeddingResponse, error) {
		return e.client.CreateEmbeddings(ctx, req)
	}
	var (
		resp openai.EmbeddingResponse
		err  error
	)
	if e.executor != nil {
		resp, err = resilience.Do(ctx, e.executor, "openai.embed", call, classify)
		err = resilience.WrapTemporary("openai embed", err, classify)
	} else {
		resp, err = call(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("create embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

// classify maps go-openai error types onto the HTTP retry rules.
func classify(err error) resilience.ErrorClassification {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return resilience.ClassifyHTTP(&resilience.HTTPStatusError{StatusCode: apiErr.HTTPStatusCode})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return resilience.ClassifyHTTP(&resilience.HTTPStatusError{StatusCode: reqErr.HTTPStatusCode})
	}
	return resilience.ClassifyHTTP(err)
}
