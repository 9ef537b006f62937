package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/paper-evidence/internal/infrastructure/resilience"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/storage/localfs"
)

func paperServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/good.pdf":
			_, _ = w.Write([]byte("%PDF-1.4 fake"))
		case "/html.pdf":
			_, _ = w.Write([]byte("<html>captcha</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestEnsureCorpusDownloadsIntoEmptyStore(t *testing.T) {
	var hits int32
	server := paperServer(t, &hits)
	defer server.Close()

	store, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New() error = %v", err)
	}
	papers := []Paper{
		{Name: "good.pdf", URL: server.URL + "/good.pdf"},
		{Name: "html.pdf", URL: server.URL + "/html.pdf"},
		{Name: "missing.pdf", URL: server.URL + "/missing.pdf"},
	}
	exec := resilience.NewExecutor(resilience.Config{
		Retry: resilience.RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1},
	}, nil)

	err = NewFetcher(store, papers, time.Second, exec, nil).EnsureCorpus(context.Background())
	if err == nil || !strings.Contains(err.Error(), "html.pdf") || !strings.Contains(err.Error(), "missing.pdf") {
		t.Fatalf("expected per-paper failures, got %v", err)
	}
	keys, _ := store.List(context.Background(), ".pdf")
	if len(keys) != 1 || keys[0] != "good.pdf" {
		t.Fatalf("expected only good.pdf to be stored, got %v", keys)
	}
	// 404 is not retried.
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 requests, got %d", hits)
	}
}

func TestEnsureCorpusSkipsWhenPDFsExist(t *testing.T) {
	var hits int32
	server := paperServer(t, &hits)
	defer server.Close()

	store, _ := localfs.New(t.TempDir())
	_ = store.Save(context.Background(), "local.pdf", strings.NewReader("%PDF-1.4"))

	err := NewFetcher(store, []Paper{{Name: "good.pdf", URL: server.URL + "/good.pdf"}}, time.Second, nil, nil).
		EnsureCorpus(context.Background())
	if err != nil {
		t.Fatalf("EnsureCorpus() error = %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no downloads, got %d", hits)
	}
}
