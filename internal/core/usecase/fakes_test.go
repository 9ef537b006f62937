package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/sparse"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/vector/memory"
)

// keywordEmbedder puts one dimension per keyword so tests can steer dense hits.
type keywordEmbedder struct {
	keywords []string
	err      error
}

func (f *keywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	out := make([]float32, len(f.keywords)+1)
	out[len(f.keywords)] = 0.01
	for i, kw := range f.keywords {
		out[i] = float32(strings.Count(text, kw))
	}
	return out
}

func (f *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

// lengthReranker prefers shorter passages.
type lengthReranker struct {
	err      error
	passages []string
}

func (f *lengthReranker) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	f.passages = passages
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = -float64(len(p))
	}
	return out, nil
}

type recordingSink struct {
	got []domain.Interaction
	err error
}

func (f *recordingSink) Record(_ context.Context, in domain.Interaction) error {
	f.got = append(f.got, in)
	return f.err
}

type staticPages struct {
	pages []domain.PageText
	err   error
}

func (f *staticPages) LoadPages(context.Context) ([]domain.PageText, error) {
	return f.pages, f.err
}

type staticImages struct {
	images []domain.ImageItem
}

func (f *staticImages) LoadImages(context.Context) ([]domain.ImageItem, error) {
	return f.images, nil
}

type failingFetcher struct{ called bool }

func (f *failingFetcher) EnsureCorpus(context.Context) error {
	f.called = true
	return errors.New("offline")
}

func testPages() []domain.PageText {
	return []domain.PageText{
		{DocID: "attention.pdf", PageNum: 1, Text: "The Transformer architecture relies on attention and dispenses with recurrence and convolution."},
		{DocID: "attention.pdf", PageNum: 2, Text: "Multi-head attention lets the model attend to different positions."},
		{DocID: "bert.pdf", PageNum: 1, Text: "BERT pre-trains a bidirectional Transformer encoder with masked language modeling."},
		{DocID: "bert.pdf", PageNum: 2, Text: "BERT base and BERT large differ in layer count, hidden size and parameter size."},
	}
}

func testImages() []domain.ImageItem {
	return []domain.ImageItem{
		{ItemID: "transformer_architecture.png", Path: "figures/transformer_architecture.png", Caption: "transformer architecture"},
		{ItemID: "bert_pretraining.png", Path: "figures/bert_pretraining.png", Caption: "bert pretraining"},
	}
}

func newTestEngine(opts ...EngineOption) *Engine {
	return NewEngine(sparse.NewIndexer(), memory.NewIndexer(), opts...)
}

func ingestTestCorpus(e *Engine) {
	if _, err := e.Ingest(context.Background(), testPages(), testImages(), nil); err != nil {
		panic(err)
	}
}
