package bootstrap

import (
	"fmt"
	"time"

	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/core/usecase"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/chunking"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/embedding/hashing"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/llm/openai"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/rerank/lexical"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/rerank/tei"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/resilience"
)

const (
	backendNone      = "none"
	backendOllama    = "ollama"
	backendOpenAI    = "openai"
	backendHashing   = "hashing"
	backendTEI       = "tei"
	backendLexical   = "lexical"
	answerExtractive = "extractive"
)

// modelClients resolves the optional model backends. A nil port means the
// engine runs without that capability.
type modelClients struct {
	cfg      config.Config
	executor *resilience.Executor
	ollama   *ollama.Client
}

func newModelClients(cfg config.Config, executor *resilience.Executor) *modelClients {
	return &modelClients{cfg: cfg, executor: executor}
}

func (m *modelClients) ollamaClient() *ollama.Client {
	if m.ollama == nil {
		m.ollama = ollama.New(m.cfg.OllamaURL, m.cfg.OllamaGenModel, m.cfg.OllamaEmbedModel, ollama.WithExecutor(m.executor))
	}
	return m.ollama
}

func (m *modelClients) embedder() (ports.Embedder, error) {
	switch m.cfg.Embedder {
	case "", backendNone:
		return nil, nil
	case backendOllama:
		return ollama.NewEmbedder(m.ollamaClient()), nil
	case backendOpenAI:
		e, err := openai.NewEmbedder(openai.Config{
			APIKey:  m.cfg.OpenAIAPIKey,
			BaseURL: m.cfg.OpenAIBaseURL,
			Model:   m.cfg.OpenAIEmbedModel,
		}, m.executor)
		if err != nil {
			return nil, fmt.Errorf("init openai embedder: %w", err)
		}
		return e, nil
	case backendHashing:
		return hashing.New(m.cfg.HashingDimension), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidConfig, "select embedder", fmt.Errorf("unknown EMBEDDER %q", m.cfg.Embedder))
	}
}

func (m *modelClients) reranker() (ports.Reranker, error) {
	switch m.cfg.Reranker {
	case "", backendNone:
		return nil, nil
	case backendTEI:
		return tei.New(m.cfg.RerankURL, time.Duration(m.cfg.RerankTimeoutSeconds)*time.Second, m.executor), nil
	case backendLexical:
		return lexical.New(), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidConfig, "select reranker", fmt.Errorf("unknown RERANKER %q", m.cfg.Reranker))
	}
}

func (m *modelClients) generator() (ports.AnswerGenerator, error) {
	switch m.cfg.AnswerMode {
	case "", answerExtractive:
		return usecase.NewExtractiveGenerator(), nil
	case backendOllama:
		return ollama.NewGenerator(m.ollamaClient()), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidConfig, "select answer mode", fmt.Errorf("unknown ANSWER_MODE %q", m.cfg.AnswerMode))
	}
}

// chunkerFactory defers splitter validation to ingestion time.
func chunkerFactory(cfg config.Config) usecase.ChunkerFactory {
	return func() (ports.Chunker, error) {
		switch cfg.ChunkingMode {
		case "", usecase.ChunkingFixed:
			splitter, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
			if err != nil {
				return nil, err
			}
			return splitter, nil
		case usecase.ChunkingPage:
			return chunking.PassThrough{}, nil
		default:
			return nil, domain.WrapError(domain.ErrInvalidConfig, "select chunking mode", fmt.Errorf("unknown CHUNKING_MODE %q", cfg.ChunkingMode))
		}
	}
}
