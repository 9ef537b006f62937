package plaintext

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/extractor"
)

// Source loads every .txt document as a single page.
type Source struct {
	storage ports.ObjectStorage
}

func NewSource(storage ports.ObjectStorage) *Source {
	return &Source{storage: storage}
}

func (s *Source) LoadPages(ctx context.Context) ([]domain.PageText, error) {
	keys, err := s.storage.List(ctx, ".txt")
	if err != nil {
		return nil, fmt.Errorf("list text documents: %w", err)
	}

	pages := make([]domain.PageText, 0, len(keys))
	for _, key := range keys {
		text, err := s.read(ctx, key)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}
		pages = append(pages, domain.PageText{DocID: key, PageNum: 1, Text: text})
	}
	return pages, nil
}

func (s *Source) read(ctx context.Context, key string) (string, error) {
	reader, err := s.storage.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "read source document", fmt.Errorf("%s is not valid UTF-8", key))
	}
	return extractor.CleanText(string(raw)), nil
}
