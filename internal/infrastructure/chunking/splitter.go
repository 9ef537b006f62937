package chunking

import (
	"fmt"
	"unicode/utf8"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const (
	DefaultChunkSize    = 900
	DefaultChunkOverlap = 150
)

type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter rejects any setting whose window step would be non-positive.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new splitter", fmt.Errorf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new splitter", fmt.Errorf("chunk overlap must be non-negative, got %d", overlap))
	}
	if overlap >= chunkSize {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new splitter", fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, chunkSize))
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}, nil
}

// SplitPages windows every chunk longer than ChunkSize; shorter ones keep their id.
func (s *Splitter) SplitPages(chunks []domain.TextChunk) []domain.TextChunk {
	out := make([]domain.TextChunk, 0, len(chunks))
	for _, ch := range chunks {
		parts := s.Split(ch.Text)
		if len(parts) <= 1 {
			out = append(out, ch)
			continue
		}
		for n, part := range parts {
			out = append(out, domain.TextChunk{
				ChunkID: domain.SubChunkID(ch.ChunkID, n),
				DocID:   ch.DocID,
				PageNum: ch.PageNum,
				Text:    part,
			})
		}
	}
	return out
}

// Split counts characters, not bytes, and never trims window content.
// Windows are cut from the original bytes; an invalid UTF-8 byte counts as one
// character and is kept as is.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	offsets := charOffsets(text)
	n := len(offsets) - 1
	if n <= s.ChunkSize {
		return []string{text}
	}

	step := s.ChunkSize - s.Overlap
	out := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := min(start+s.ChunkSize, n)
		out = append(out, text[offsets[start]:offsets[end]])
		if end == n {
			break
		}
	}
	return out
}

// charOffsets returns the byte offset of every character plus len(text).
func charOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		offsets = append(offsets, i)
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return append(offsets, len(text))
}

// PassThrough keeps one chunk per page.
type PassThrough struct{}

func (PassThrough) SplitPages(chunks []domain.TextChunk) []domain.TextChunk {
	out := make([]domain.TextChunk, len(chunks))
	copy(out, chunks)
	return out
}
