package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/chunking"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/resilience"
)

func offlineConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		PDFDir:              filepath.Join(dir, "pdfs"),
		ImageDir:            filepath.Join(dir, "images"),
		InteractionLogPath:  filepath.Join(dir, "logs", "query_logs.csv"),
		ChunkingMode:        "fixed",
		ChunkSize:           900,
		ChunkOverlap:        150,
		TopKText:            5,
		TopKImages:          3,
		TopKEvidence:        6,
		Alpha:               0.5,
		RetrievalMethod:     "rerank",
		EvalAssumedRelevant: 3,
		Embedder:            "hashing",
		HashingDimension:    64,
		Reranker:            "lexical",
		AnswerMode:          "extractive",
	}
}

func TestNewOfflineAppIngestsAndAnswers(t *testing.T) {
	cfg := offlineConfig(t)
	if err := os.MkdirAll(cfg.PDFDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	text := "The Transformer architecture relies on attention instead of recurrence and convolution."
	if err := os.WriteFile(filepath.Join(cfg.PDFDir, "notes.txt"), []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.ImageDir, "transformer_architecture.png"), []byte{0x89}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx := context.Background()
	app, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	stats, err := app.Ingest(ctx)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if stats.Pages != 1 || stats.Images != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if caps := app.Engine.Capabilities(); !caps.HasDense || !caps.HasRerank {
		t.Fatalf("expected dense and rerank capabilities, got %+v", caps)
	}

	req := cfg.RetrieveDefaults()
	req.Query = "transformer architecture"
	result, err := app.QueryUC.Ask(ctx, req)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(result.Evidence) != 2 {
		t.Fatalf("expected text and image evidence, got %+v", result.Evidence)
	}
	if result.Evaluation.RubricID != "Q1" {
		t.Fatalf("expected rubric Q1 to match, got %+v", result.Evaluation)
	}
	if _, err := os.Stat(cfg.InteractionLogPath); err != nil {
		t.Fatalf("expected interaction csv log: %v", err)
	}
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	for _, mutate := range []func(*config.Config){
		func(c *config.Config) { c.Embedder = "word2vec" },
		func(c *config.Config) { c.Reranker = "colbert" },
		func(c *config.Config) { c.AnswerMode = "gpt" },
	} {
		cfg := offlineConfig(t)
		mutate(&cfg)
		if _, err := New(context.Background(), cfg, nil); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	}
}

func TestChunkerFactory(t *testing.T) {
	cfg := offlineConfig(t)

	cfg.ChunkingMode = "page"
	c, err := chunkerFactory(cfg)()
	if err != nil {
		t.Fatalf("page mode error = %v", err)
	}
	if _, ok := c.(chunking.PassThrough); !ok {
		t.Fatalf("expected PassThrough, got %T", c)
	}

	cfg.ChunkingMode = "fixed"
	cfg.ChunkOverlap = cfg.ChunkSize
	if _, err := chunkerFactory(cfg)(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for overlap >= size, got %v", err)
	}

	cfg.ChunkingMode = "semantic"
	if _, err := chunkerFactory(cfg)(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown mode, got %v", err)
	}
}

func TestResilienceConfigFromEnvSettings(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.ResilienceMaxAttempts = 4
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = -3

	got := resilienceConfig(cfg)
	if got.Retry.MaxAttempts != 4 || !got.Breaker.Enabled || got.Breaker.MinRequests != 0 {
		t.Fatalf("unexpected resilience config: %+v", got)
	}
	_ = resilience.NewExecutor(got, nil)
}
