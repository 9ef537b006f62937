package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/chunking"
)

type storageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *storageFake) List(context.Context, string) ([]string, error) { return nil, nil }

func fixedChunker(size, overlap int) ChunkerFactory {
	return func() (ports.Chunker, error) {
		splitter, err := chunking.NewSplitter(size, overlap)
		if err != nil {
			return nil, err
		}
		return splitter, nil
	}
}

func TestIngestCorpusFetchFailureDoesNotBlock(t *testing.T) {
	engine := newTestEngine()
	fetcher := &failingFetcher{}
	uc := NewIngestCorpusUseCase(
		fetcher,
		[]ports.PageSource{&staticPages{pages: testPages()[:2]}, &staticPages{pages: testPages()[2:]}},
		&staticImages{images: testImages()},
		engine,
		fixedChunker(900, 150),
		nil,
		nil,
	)

	stats, err := uc.IngestCorpus(context.Background())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !fetcher.called {
		t.Fatalf("expected fetcher to run")
	}
	if stats != (domain.CorpusStats{Pages: 4, TextChunks: 4, Images: 2}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if engine.Stats() != stats {
		t.Fatalf("engine stats differ from ingestion stats")
	}
}

func TestIngestCorpusInvalidChunkConfig(t *testing.T) {
	engine := newTestEngine()
	uc := NewIngestCorpusUseCase(nil, []ports.PageSource{&staticPages{pages: testPages()}}, nil, engine, fixedChunker(100, 100), nil, nil)

	_, err := uc.IngestCorpus(context.Background())
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := engine.Retrieve(context.Background(), askRequest("bert")); !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("failed ingestion must not install a snapshot, got %v", err)
	}
}

func TestIngestCorpusPageSourceError(t *testing.T) {
	uc := NewIngestCorpusUseCase(nil, []ports.PageSource{&staticPages{err: errors.New("corrupt pdf")}}, nil, newTestEngine(), nil, nil, nil)
	if _, err := uc.IngestCorpus(context.Background()); err == nil {
		t.Fatalf("expected page source error")
	}
}

func TestIngestUploadSanitizesName(t *testing.T) {
	storage := &storageFake{}
	uc := NewIngestCorpusUseCase(nil, nil, nil, newTestEngine(), nil, storage, nil)

	key, err := uc.Upload(context.Background(), "../my paper (v2).pdf", bytes.NewBufferString("%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if key != "my_paper__v2_.pdf" || storage.savedKey != key || storage.savedBody != "%PDF" {
		t.Fatalf("unexpected upload: key=%q saved=%q body=%q", key, storage.savedKey, storage.savedBody)
	}
}

func TestIngestUploadRejectsUnsupportedType(t *testing.T) {
	uc := NewIngestCorpusUseCase(nil, nil, nil, newTestEngine(), nil, &storageFake{}, nil)
	if _, err := uc.Upload(context.Background(), "slides.pptx", strings.NewReader("x")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	uc = NewIngestCorpusUseCase(nil, nil, nil, newTestEngine(), nil, &storageFake{err: errors.New("disk full")}, nil)
	if _, err := uc.Upload(context.Background(), "a.txt", strings.NewReader("x")); err == nil {
		t.Fatalf("expected storage error")
	}
}
