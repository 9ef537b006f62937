// Package pdf turns PDF documents into per-page text.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/extractor"
)

// Source extracts every .pdf in storage. A document that cannot be parsed
// is skipped with a warning so one bad file never blocks the corpus.
type Source struct {
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewSource(storage ports.ObjectStorage, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{storage: storage, logger: logger}
}

func (s *Source) LoadPages(ctx context.Context) ([]domain.PageText, error) {
	keys, err := s.storage.List(ctx, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("list pdf documents: %w", err)
	}

	var pages []domain.PageText
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docPages, err := s.extract(ctx, key)
		if err != nil {
			s.logger.Warn("pdf_extract_failed", "doc_id", key, "error", err)
			continue
		}
		pages = append(pages, docPages...)
	}
	return pages, nil
}

func (s *Source) extract(ctx context.Context, key string) ([]domain.PageText, error) {
	rc, err := s.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return ExtractPages(key, raw)
}

// ExtractPages returns the non-empty pages of one PDF, numbered from 1.
func ExtractPages(docID string, raw []byte) (pages []domain.PageText, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf %s: %v", docID, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", docID, err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, docID, err)
		}
		text = extractor.CleanText(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.PageText{DocID: docID, PageNum: i, Text: text})
	}
	return pages, nil
}
