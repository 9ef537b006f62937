package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/usecase"
	"github.com/kirillkom/paper-evidence/internal/observability/metrics"
)

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(testConfig(), nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestRetrieveFillsDefaultsButKeepsExplicitZero(t *testing.T) {
	retriever := &retrieverFake{evidence: []domain.EvidenceItem{{Modality: domain.ModalityText, ID: "a.pdf::p1", Content: "x"}}}
	handler := newTestHandler(testConfig(), retriever)

	res := postJSON(t, handler, "/v1/retrieve", `{"query":"attention","alpha":0,"top_k_images":0}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	calls := retriever.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one retrieve call, got %d", len(calls))
	}
	got := calls[0]
	if got.Alpha != 0 || got.TopKImages != 0 {
		t.Fatalf("explicit zeros replaced by defaults: %+v", got)
	}
	if got.TopKText != 5 || got.TopKEvidence != 6 || got.Method != domain.MethodRerank {
		t.Fatalf("defaults not applied: %+v", got)
	}

	var body struct {
		Method   domain.Method         `json:"method"`
		Evidence []domain.EvidenceItem `json:"evidence"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Method != domain.MethodRerank || len(body.Evidence) != 1 {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestRetrieveMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrNotReady, "retrieve", errors.New("no corpus")), http.StatusServiceUnavailable},
		{domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("bad method")), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		handler := newTestHandler(testConfig(), &retrieverFake{err: tc.err})
		res := postJSON(t, handler, "/v1/retrieve", `{"query":"q"}`)
		if res.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, res.Code)
		}
	}
}

func TestRequestValidationRejectsBeforeHandler(t *testing.T) {
	retriever := &retrieverFake{}
	handler := newTestHandler(testConfig(), retriever)

	for _, body := range []string{
		`{"query":"q","alpha":1.5}`,
		`{"query":"q","top_k_text":-1}`,
		`{"alpha":0.5}`,
	} {
		res := postJSON(t, handler, "/v1/retrieve", body)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, res.Code)
		}
	}
	if n := len(retriever.calls()); n != 0 {
		t.Fatalf("invalid requests reached the retriever %d times", n)
	}
}

func TestEvaluateUsesRubricTable(t *testing.T) {
	handler := newTestHandler(testConfig(), nil)
	payload := map[string]any{
		"query": usecase.DefaultRubrics()[1].Question,
		"evidence": []map[string]any{
			{"modality": "text", "id": "bert.pdf::p1", "content": "BERT uses a bidirectional Transformer encoder."},
			{"modality": "image", "id": "fig.png", "content": "model overview"},
		},
	}
	raw, _ := json.Marshal(payload)

	res := postJSON(t, handler, "/v1/evaluate", string(raw))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var body struct {
		Evaluable  bool              `json:"evaluable"`
		Evaluation domain.Evaluation `json:"evaluation"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Evaluable || body.Evaluation.RubricID != "Q2" || body.Evaluation.PrecisionAt5 != 0.2 {
		t.Fatalf("unexpected evaluation: %+v", body)
	}
}

func TestEvaluateUnknownQueryReturnsSentinel(t *testing.T) {
	handler := newTestHandler(testConfig(), nil)
	res := postJSON(t, handler, "/v1/evaluate", `{"query":"weather in Paris","evidence":[]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Evaluation domain.Evaluation `json:"evaluation"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Evaluation.PrecisionAt5 != domain.NotEvaluable || body.Evaluation.RecallAt10 != domain.NotEvaluable {
		t.Fatalf("expected sentinel, got %+v", body.Evaluation)
	}
}

func TestAskReturnsQueryResult(t *testing.T) {
	handler := newTestHandler(testConfig(), nil)
	res := postJSON(t, handler, "/v1/ask", `{"query":"what is attention","method":"sparse"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var result domain.QueryResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Answer != "answer" || result.Method != domain.MethodSparse {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestIngestRecordsMetrics(t *testing.T) {
	httpMetrics := metrics.NewHTTPServerMetrics("api")
	handler := NewRouter(testConfig(), Services{
		Retriever: &retrieverFake{},
		Evaluator: usecase.NewEvaluator(nil, 0),
		Queries:   queryFake{},
		Ingestor:  ingestFake{},
	}, httpMetrics, nil).Handler()

	res := postJSON(t, handler, "/v1/ingest", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(scrape.Body.String(), `evidence_corpus_items{kind="text_chunks",service="api"} 9`) {
		t.Fatalf("expected corpus gauge after ingest, got:\n%s", scrape.Body.String())
	}
}

func TestIngestFailureIs500(t *testing.T) {
	handler := NewRouter(testConfig(), Services{
		Retriever: &retrieverFake{},
		Evaluator: usecase.NewEvaluator(nil, 0),
		Ingestor:  ingestFake{err: domain.WrapError(domain.ErrInvalidConfig, "ingest", errors.New("overlap >= size"))},
	}, nil, nil).Handler()

	res := postJSON(t, handler, "/v1/ingest", "")
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestUploadDocumentSuccess(t *testing.T) {
	handler := newTestHandler(testConfig(), nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["key"] != "notes.txt" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestHandler(testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	handler := newTestHandler(testConfig(), nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
