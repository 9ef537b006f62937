package ports

import (
	"context"
	"io"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

// EvidenceRetriever is the inbound contract of the retrieval-and-fusion engine.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, req domain.RetrieveRequest) ([]domain.EvidenceItem, error)
	Capabilities() domain.Capabilities
	Stats() domain.CorpusStats
}

// EvidenceEvaluator scores an evidence list against the rubric table.
type EvidenceEvaluator interface {
	Evaluate(query string, evidence []domain.EvidenceItem) domain.Evaluation
	Rubrics() []domain.Rubric
}

// CorpusIngestor loads the corpus from its sources and (re)builds the indices.
type CorpusIngestor interface {
	IngestCorpus(ctx context.Context) (domain.CorpusStats, error)
}

// QueryService runs a full query round trip: retrieve, answer, evaluate, log.
type QueryService interface {
	Ask(ctx context.Context, req domain.RetrieveRequest) (*domain.QueryResult, error)
}

// CorpusIndexer builds a fresh index snapshot from extracted pages and figures.
type CorpusIndexer interface {
	Ingest(ctx context.Context, pages []domain.PageText, images []domain.ImageItem, chunker Chunker) (domain.CorpusStats, error)
}

// DocumentUploader stores a new source document; it becomes searchable on the next ingest.
type DocumentUploader interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
}
