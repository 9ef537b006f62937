package ports

import (
	"context"
	"io"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

// Chunker splits page-level chunks into bounded sub-chunks.
type Chunker interface {
	SplitPages(chunks []domain.TextChunk) []domain.TextChunk
}

// SparseIndex answers lexical top-k queries over a fixed corpus.
type SparseIndex interface {
	Search(query string, k int) []domain.ScoredHit
	Len() int
}

// SparseIndexer builds a SparseIndex over raw documents.
type SparseIndexer interface {
	Build(docs []string) SparseIndex
}

// DenseIndex answers nearest-neighbour queries over stored embeddings.
type DenseIndex interface {
	Search(query []float32, k int) []domain.ScoredHit
	Len() int
}

// DenseIndexer builds a DenseIndex over embeddings aligned with the corpus.
type DenseIndexer interface {
	Build(vectors [][]float32) (DenseIndex, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores (query, passage) pairs; higher is more relevant.
type Reranker interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// AnswerGenerator turns fused evidence into a user-facing answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, evidence []domain.EvidenceItem) (string, error)
}

// PageSource yields extracted page text in document order.
type PageSource interface {
	LoadPages(ctx context.Context) ([]domain.PageText, error)
}

// ImageSource yields the figure collection.
type ImageSource interface {
	LoadImages(ctx context.Context) ([]domain.ImageItem, error)
}

// CorpusFetcher makes sure source documents exist locally before ingestion.
type CorpusFetcher interface {
	EnsureCorpus(ctx context.Context) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, ext string) ([]string, error)
}

// InteractionLogger records query round trips.
type InteractionLogger interface {
	Record(ctx context.Context, interaction domain.Interaction) error
}

// InteractionStore persists interactions and reads recent ones back.
type InteractionStore interface {
	InteractionLogger
	ListRecent(ctx context.Context, limit int) ([]domain.Interaction, error)
}

// RubricSource provides the evaluation rubric table.
type RubricSource interface {
	LoadRubrics(ctx context.Context) ([]domain.Rubric, error)
}

// ReportWriter renders the method comparison matrix.
type ReportWriter interface {
	WriteComparison(ctx context.Context, rows []domain.MethodComparison) error
}
