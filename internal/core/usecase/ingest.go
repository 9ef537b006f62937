package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

const (
	ChunkingFixed = "fixed"
	ChunkingPage  = "page"
)

// ChunkerFactory builds the chunker for one ingestion run, so invalid chunk
// settings surface as an ingestion error.
type ChunkerFactory func() (ports.Chunker, error)

type IngestCorpusUseCase struct {
	fetcher ports.CorpusFetcher
	pages   []ports.PageSource
	images  ports.ImageSource
	indexer ports.CorpusIndexer
	chunker ChunkerFactory
	uploads ports.ObjectStorage
	logger  *slog.Logger
}

func NewIngestCorpusUseCase(
	fetcher ports.CorpusFetcher,
	pages []ports.PageSource,
	images ports.ImageSource,
	indexer ports.CorpusIndexer,
	chunker ChunkerFactory,
	uploads ports.ObjectStorage,
	logger *slog.Logger,
) *IngestCorpusUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestCorpusUseCase{
		fetcher: fetcher,
		pages:   pages,
		images:  images,
		indexer: indexer,
		chunker: chunker,
		uploads: uploads,
		logger:  logger,
	}
}

func (uc *IngestCorpusUseCase) IngestCorpus(ctx context.Context) (domain.CorpusStats, error) {
	var chunker ports.Chunker
	if uc.chunker != nil {
		c, err := uc.chunker()
		if err != nil {
			return domain.CorpusStats{}, fmt.Errorf("build chunker: %w", err)
		}
		chunker = c
	}

	// Download failures must not block ingestion of what is already on disk.
	if uc.fetcher != nil {
		if err := uc.fetcher.EnsureCorpus(ctx); err != nil {
			uc.logger.Warn("corpus_fetch_failed", "error", err)
		}
	}

	var pages []domain.PageText
	for _, source := range uc.pages {
		loaded, err := source.LoadPages(ctx)
		if err != nil {
			return domain.CorpusStats{}, fmt.Errorf("load pages: %w", err)
		}
		pages = append(pages, loaded...)
	}

	var images []domain.ImageItem
	if uc.images != nil {
		loaded, err := uc.images.LoadImages(ctx)
		if err != nil {
			return domain.CorpusStats{}, fmt.Errorf("load images: %w", err)
		}
		images = loaded
	}

	stats, err := uc.indexer.Ingest(ctx, pages, images, chunker)
	if err != nil {
		return domain.CorpusStats{}, fmt.Errorf("build indices: %w", err)
	}
	return stats, nil
}

// Upload stores one source document under a sanitized name. The new file
// only becomes searchable after the next IngestCorpus.
func (uc *IngestCorpusUseCase) Upload(ctx context.Context, filename string, body io.Reader) (string, error) {
	if uc.uploads == nil {
		return "", domain.WrapError(domain.ErrInvalidConfig, "upload document", fmt.Errorf("upload storage is not configured"))
	}
	key := sanitizeFilename(filename)
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf", ".txt":
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("unsupported file type %q", filepath.Ext(key)))
	}
	if err := uc.uploads.Save(ctx, key, body); err != nil {
		return "", fmt.Errorf("save to object storage: %w", err)
	}
	return key, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document.bin"
	}
	return base
}
