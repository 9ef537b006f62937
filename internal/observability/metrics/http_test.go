package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", res.Code)
	}
	return res.Body.String()
}

func TestObserveQueryExportsRetrievalAndEvaluation(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.ObserveQuery(domain.MethodHybrid, 20*time.Millisecond, 4, domain.Evaluation{RubricID: "Q1", PrecisionAt5: 0.6, RecallAt10: 1})
	m.ObserveQuery(domain.MethodSparse, time.Millisecond, 0, domain.NotEvaluated())

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`evidence_retrieval_requests_total{method="hybrid",service="api"} 1`,
		`evidence_retrieval_empty_total{method="sparse",service="api"} 1`,
		`evidence_evaluation_not_evaluable_total{method="sparse",service="api"} 1`,
		`evidence_evaluation_score_count{method="hybrid",metric="recall_at_10",service="api"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output:\n%s", want, body)
		}
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/retrieve", nil))

	body := scrape(t, m.Handler())
	want := `evidence_http_requests_total{method="POST",path="/v1/retrieve",service="api",status="418"} 1`
	if !strings.Contains(body, want) {
		t.Fatalf("expected %q in scrape output:\n%s", want, body)
	}
}

func TestRecordIngestSetsCorpusGauges(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordIngest(domain.CorpusStats{Pages: 3, TextChunks: 7, Images: 2}, time.Second, nil)

	body := scrape(t, m.Handler())
	if !strings.Contains(body, `evidence_corpus_items{kind="text_chunks",service="api"} 7`) {
		t.Fatalf("expected corpus gauge in scrape output:\n%s", body)
	}
	if !strings.Contains(body, `evidence_ingest_runs_total{service="api",status="success"} 1`) {
		t.Fatalf("expected ingest counter in scrape output:\n%s", body)
	}
}

func TestArchiveMetricsTrackOutcomes(t *testing.T) {
	m := NewArchiveMetrics("worker")
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	scored := domain.Interaction{ID: "a", Timestamp: ts, Mode: domain.MethodRerank, PrecisionAt5: 0.4, RecallAt10: 1}
	m.Track(scored, ts.Add(2*time.Second))(nil)

	unscored := domain.Interaction{ID: "b", Timestamp: ts, Mode: domain.MethodSparse, PrecisionAt5: -1, RecallAt10: -1}
	m.Track(unscored, ts.Add(time.Second))(nil)

	bad := domain.Interaction{ID: "c", Timestamp: ts, Mode: "bm25"}
	m.Track(bad, ts)(domain.WrapError(domain.ErrInvalidInput, "validate interaction", errors.New("bad mode")))

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`evidence_archive_interactions_total{method="rerank",outcome="stored",service="worker"} 1`,
		`evidence_archive_interactions_total{method="sparse",outcome="stored",service="worker"} 1`,
		`evidence_archive_interactions_total{method="unknown",outcome="rejected",service="worker"} 1`,
		`evidence_archive_unscored_total{service="worker"} 1`,
		`evidence_archive_pending{service="worker"} 0`,
		`evidence_archive_event_age_seconds_count{service="worker"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output:\n%s", want, body)
		}
	}
}
