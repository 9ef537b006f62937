package chunking

import (
	"strings"
	"testing"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

func TestNewSplitterRejectsOverlapNotSmallerThanSize(t *testing.T) {
	cases := []struct{ size, overlap int }{
		{100, 100},
		{100, 150},
		{0, 0},
		{100, -1},
	}
	for _, tc := range cases {
		_, err := NewSplitter(tc.size, tc.overlap)
		if err == nil {
			t.Fatalf("expected error for size=%d overlap=%d", tc.size, tc.overlap)
		}
		if !domain.IsKind(err, domain.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	}
}

func TestSplitPagesShortChunkKeepsID(t *testing.T) {
	s, err := NewSplitter(10, 2)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}
	in := []domain.TextChunk{{ChunkID: "a.pdf::p1", DocID: "a.pdf", PageNum: 1, Text: "0123456789"}}
	out := s.SplitPages(in)
	if len(out) != 1 || out[0].ChunkID != "a.pdf::p1" {
		t.Fatalf("expected pass-through chunk, got %+v", out)
	}
}

func TestSplitPagesDerivesSubIDs(t *testing.T) {
	s, err := NewSplitter(10, 3)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}
	in := []domain.TextChunk{{ChunkID: "a.pdf::p2", DocID: "a.pdf", PageNum: 2, Text: strings.Repeat("x", 25)}}
	out := s.SplitPages(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 sub-chunks, got %d", len(out))
	}
	for n, ch := range out {
		want := domain.SubChunkID("a.pdf::p2", n)
		if ch.ChunkID != want {
			t.Fatalf("chunk %d id = %s, want %s", n, ch.ChunkID, want)
		}
		if ch.DocID != "a.pdf" || ch.PageNum != 2 {
			t.Fatalf("chunk %d lost parent identity: %+v", n, ch)
		}
	}
}

func TestSplitBoundsAndReconstruction(t *testing.T) {
	texts := []string{
		strings.Repeat("abcdefghij", 37),
		"Attention is all you need. " + strings.Repeat("Трансформер ", 40),
		strings.Repeat("z", 901),
	}
	settings := []struct{ size, overlap int }{{900, 150}, {50, 10}, {7, 6}, {13, 0}}

	for _, cfg := range settings {
		s, err := NewSplitter(cfg.size, cfg.overlap)
		if err != nil {
			t.Fatalf("NewSplitter(%d,%d) error = %v", cfg.size, cfg.overlap, err)
		}
		step := cfg.size - cfg.overlap
		for _, text := range texts {
			parts := s.Split(text)
			var rebuilt []rune
			for i, part := range parts {
				runes := []rune(part)
				if len(runes) > cfg.size {
					t.Fatalf("part %d has %d runes, limit %d", i, len(runes), cfg.size)
				}
				if i == len(parts)-1 {
					rebuilt = append(rebuilt, runes...)
					continue
				}
				rebuilt = append(rebuilt, runes[:step]...)
			}
			if string(rebuilt) != text {
				t.Fatalf("size=%d overlap=%d: reconstruction mismatch", cfg.size, cfg.overlap)
			}
		}
	}
}

func TestSplitKeepsInvalidUTF8Bytes(t *testing.T) {
	s, err := NewSplitter(4, 1)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}
	text := "ab\xffcdefg"
	parts := s.Split(text)
	want := []string{"ab\xffc", "cdef", "fg"}
	if len(parts) != len(want) {
		t.Fatalf("expected %q, got %q", want, parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Fatalf("part %d: expected %q, got %q", i, want[i], parts[i])
		}
	}
	rebuilt := parts[0][:3] + parts[1][:3] + parts[2]
	if rebuilt != text {
		t.Fatalf("expected %q after rebuild, got %q", text, rebuilt)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s, _ := NewSplitter(10, 2)
	if parts := s.Split(""); len(parts) != 0 {
		t.Fatalf("expected no parts, got %v", parts)
	}
}

func TestPassThroughKeepsPages(t *testing.T) {
	in := []domain.TextChunk{{ChunkID: "a::p1", Text: strings.Repeat("x", 5000)}}
	out := PassThrough{}.SplitPages(in)
	if len(out) != 1 || out[0].ChunkID != "a::p1" {
		t.Fatalf("unexpected output %+v", out)
	}
}
