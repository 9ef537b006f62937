package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

// snapshot is one immutable generation of the corpus and its indices.
type snapshot struct {
	pages      int
	chunks     []domain.TextChunk
	images     []domain.ImageItem
	textIndex  ports.SparseIndex
	imageIndex ports.SparseIndex
	dense      ports.DenseIndex
}

// Engine owns every index. Ingest is the single writer; Retrieve calls are
// readers and never observe a half-built snapshot.
type Engine struct {
	sparse   ports.SparseIndexer
	denseIdx ports.DenseIndexer
	embedder ports.Embedder
	reranker ports.Reranker
	logger   *slog.Logger

	mu   sync.RWMutex
	snap *snapshot
}

type EngineOption func(*Engine)

func WithEmbedder(embedder ports.Embedder) EngineOption {
	return func(e *Engine) { e.embedder = embedder }
}

func WithReranker(reranker ports.Reranker) EngineOption {
	return func(e *Engine) { e.reranker = reranker }
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(sparse ports.SparseIndexer, dense ports.DenseIndexer, opts ...EngineOption) *Engine {
	e := &Engine{
		sparse:   sparse,
		denseIdx: dense,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest replaces the whole corpus. Indices are built before the write lock
// is taken, so in-flight retrievals finish against the previous snapshot.
func (e *Engine) Ingest(
	ctx context.Context,
	pages []domain.PageText,
	images []domain.ImageItem,
	chunker ports.Chunker,
) (domain.CorpusStats, error) {
	if e.sparse == nil {
		return domain.CorpusStats{}, domain.WrapError(domain.ErrInvalidConfig, "ingest", fmt.Errorf("sparse indexer is not configured"))
	}

	pageChunks := make([]domain.TextChunk, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		pageChunks = append(pageChunks, domain.ChunkFromPage(page))
	}
	chunks := pageChunks
	if chunker != nil {
		chunks = chunker.SplitPages(pageChunks)
	}

	next := &snapshot{
		pages:  len(pageChunks),
		chunks: chunks,
		images: append([]domain.ImageItem(nil), images...),
	}
	next.textIndex = e.sparse.Build(chunkTexts(chunks))
	next.imageIndex = e.sparse.Build(captions(next.images))
	next.dense = e.buildDense(ctx, chunks)

	e.mu.Lock()
	e.snap = next
	e.mu.Unlock()

	stats := next.stats()
	e.logger.Info("ingestion_complete",
		"pages", stats.Pages,
		"text_chunks", stats.TextChunks,
		"images", stats.Images,
		"has_dense", next.dense != nil,
		"has_rerank", e.reranker != nil,
	)
	return stats, nil
}

// buildDense returns nil whenever the dense subsystem cannot serve queries.
func (e *Engine) buildDense(ctx context.Context, chunks []domain.TextChunk) ports.DenseIndex {
	if e.embedder == nil || e.denseIdx == nil {
		return nil
	}
	vectors, err := e.embedder.Embed(ctx, chunkTexts(chunks))
	if err != nil {
		e.logger.Warn("dense_disabled", "reason", "embed corpus", "error", err)
		return nil
	}
	if len(vectors) != len(chunks) {
		e.logger.Warn("dense_disabled", "reason", "vectors/chunks mismatch", "vectors", len(vectors), "chunks", len(chunks))
		return nil
	}
	index, err := e.denseIdx.Build(vectors)
	if err != nil {
		e.logger.Warn("dense_disabled", "reason", "build index", "error", err)
		return nil
	}
	return index
}

func (e *Engine) Retrieve(ctx context.Context, req domain.RetrieveRequest) ([]domain.EvidenceItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	method, _ := domain.ParseMethod(string(req.Method))

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap == nil {
		return nil, domain.WrapError(domain.ErrNotReady, "retrieve", fmt.Errorf("ingest must run before retrieve"))
	}
	snap := e.snap

	textHits := e.retrieveText(ctx, snap, req.Query, req.TopKText, method)
	imageHits := snap.imageIndex.Search(req.Query, req.TopKImages)

	return Fuse(snap.chunks, snap.images, textHits, imageHits, req.Alpha, req.TopKEvidence), nil
}

func (e *Engine) Capabilities() domain.Capabilities {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.capabilities(e.snap)
}

func (e *Engine) capabilities(snap *snapshot) domain.Capabilities {
	return domain.Capabilities{
		HasDense:  snap != nil && snap.dense != nil,
		HasRerank: e.reranker != nil,
	}
}

func (e *Engine) Stats() domain.CorpusStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap == nil {
		return domain.CorpusStats{}
	}
	return e.snap.stats()
}

func (s *snapshot) stats() domain.CorpusStats {
	return domain.CorpusStats{
		Pages:      s.pages,
		TextChunks: len(s.chunks),
		Images:     len(s.images),
	}
}

func chunkTexts(chunks []domain.TextChunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}

func captions(images []domain.ImageItem) []string {
	out := make([]string, len(images))
	for i, it := range images {
		out[i] = it.Caption
	}
	return out
}
