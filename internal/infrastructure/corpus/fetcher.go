// Package corpus downloads the default papers when the document store is empty.
package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/resilience"
)

const maxPaperBytes = 64 << 20

type Paper struct {
	Name string
	URL  string
}

func DefaultPapers() []Paper {
	return []Paper{
		{Name: "attention.pdf", URL: "https://arxiv.org/pdf/1706.03762.pdf"},
		{Name: "bert.pdf", URL: "https://arxiv.org/pdf/1810.04805.pdf"},
	}
}

type Fetcher struct {
	storage    ports.ObjectStorage
	papers     []Paper
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

func NewFetcher(
	storage ports.ObjectStorage,
	papers []Paper,
	timeout time.Duration,
	executor *resilience.Executor,
	logger *slog.Logger,
) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		storage:    storage,
		papers:     papers,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
		logger:     logger,
	}
}

// EnsureCorpus downloads every configured paper, but only when the store
// holds no PDF yet. Each failed paper is reported; the others still land.
func (f *Fetcher) EnsureCorpus(ctx context.Context) error {
	existing, err := f.storage.List(ctx, ".pdf")
	if err != nil {
		return fmt.Errorf("list existing documents: %w", err)
	}
	if len(existing) > 0 || len(f.papers) == 0 {
		return nil
	}

	f.logger.Info("corpus_download_started", "papers", len(f.papers))
	var errs []error
	for _, paper := range f.papers {
		if err := f.fetch(ctx, paper); err != nil {
			f.logger.Warn("corpus_download_failed", "paper", paper.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", paper.Name, err))
			continue
		}
		f.logger.Info("corpus_download_complete", "paper", paper.Name)
	}
	return errors.Join(errs...)
}

func (f *Fetcher) fetch(ctx context.Context, paper Paper) error {
	download := func(ctx context.Context) ([]byte, error) {
		return f.download(ctx, paper.URL)
	}

	var (
		body []byte
		err  error
	)
	if f.executor != nil {
		body, err = resilience.Do(ctx, f.executor, "corpus.download", download, resilience.ClassifyHTTP)
	} else {
		body, err = download(ctx)
	}
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		return fmt.Errorf("response is not a PDF document")
	}
	if err := f.storage.Save(ctx, paper.Name, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("save paper: %w", err)
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("User-Agent", "paper-evidence/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &resilience.HTTPStatusError{
			Service:    "corpus",
			Operation:  "download",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPaperBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}
	if len(body) > maxPaperBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", maxPaperBytes)
	}
	return body, nil
}
