package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/observability/metrics"
)

// Services are the inbound ports the API exposes. Uploads may be nil.
type Services struct {
	Retriever ports.EvidenceRetriever
	Evaluator ports.EvidenceEvaluator
	Queries   ports.QueryService
	Ingestor  ports.CorpusIngestor
	Uploads   ports.DocumentUploader
}

type Router struct {
	cfg         config.Config
	svc         Services
	defaults    domain.RetrieveRequest
	httpMetrics *metrics.HTTPServerMetrics
	logger      *slog.Logger
}

func NewRouter(cfg config.Config, svc Services, httpMetrics *metrics.HTTPServerMetrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:         cfg,
		svc:         svc,
		defaults:    cfg.RetrieveDefaults(),
		httpMetrics: httpMetrics,
		logger:      logger,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /v1/capabilities", rt.capabilities)
	api.HandleFunc("GET /v1/rubrics", rt.rubrics)
	api.HandleFunc("POST /v1/retrieve", rt.retrieve)
	api.HandleFunc("POST /v1/evaluate", rt.evaluate)
	api.HandleFunc("POST /v1/ask", rt.ask)
	api.HandleFunc("POST /v1/ingest", rt.ingest)
	api.HandleFunc("POST /v1/documents", rt.uploadDocument)

	var limited http.Handler = api
	if rt.cfg.APIRequestValidation {
		router, err := loadOpenAPIRouter()
		if err != nil {
			rt.logger.Error("openapi_validation_disabled", "error", err)
		} else {
			limited = requestValidationMiddleware(limited, router)
		}
	}
	limited = timeoutMiddleware(limited, time.Duration(rt.cfg.APIRequestTimeoutSecs)*time.Second)
	limited = backpressureMiddleware(limited, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	limited = rateLimitMiddleware(limited, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	if rt.httpMetrics != nil {
		root.Handle("GET /metrics", rt.httpMetrics.Handler())
	}
	root.Handle("/", limited)

	var handler http.Handler = root
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) capabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"capabilities": rt.svc.Retriever.Capabilities(),
		"corpus":       rt.svc.Retriever.Stats(),
		"methods":      domain.Methods,
		"defaults":     rt.defaults,
	})
}

func (rt *Router) rubrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rubrics": rt.svc.Evaluator.Rubrics()})
}

// retrieveBody uses pointers so an explicit zero (alpha 0, k 0) is kept
// instead of being replaced by the configured default.
type retrieveBody struct {
	Query        string   `json:"query"`
	Method       *string  `json:"method"`
	TopKText     *int     `json:"top_k_text"`
	TopKImages   *int     `json:"top_k_images"`
	TopKEvidence *int     `json:"top_k_evidence"`
	Alpha        *float64 `json:"alpha"`
}

func (b retrieveBody) toRequest(defaults domain.RetrieveRequest) domain.RetrieveRequest {
	req := defaults
	req.Query = b.Query
	if b.Method != nil && strings.TrimSpace(*b.Method) != "" {
		req.Method = domain.Method(*b.Method)
	}
	if b.TopKText != nil {
		req.TopKText = *b.TopKText
	}
	if b.TopKImages != nil {
		req.TopKImages = *b.TopKImages
	}
	if b.TopKEvidence != nil {
		req.TopKEvidence = *b.TopKEvidence
	}
	if b.Alpha != nil {
		req.Alpha = *b.Alpha
	}
	return req
}

func (rt *Router) decodeRetrieve(w http.ResponseWriter, r *http.Request) (domain.RetrieveRequest, bool) {
	var body retrieveBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return domain.RetrieveRequest{}, false
	}
	return body.toRequest(rt.defaults), true
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := rt.decodeRetrieve(w, r)
	if !ok {
		return
	}

	evidence, err := rt.svc.Retriever.Retrieve(r.Context(), req)
	if err != nil {
		rt.writeDomainError(w, r, "retrieve", err)
		return
	}

	method, _ := domain.ParseMethod(string(req.Method))
	writeJSON(w, http.StatusOK, map[string]any{
		"query":        req.Query,
		"method":       method,
		"evidence":     evidence,
		"capabilities": rt.svc.Retriever.Capabilities(),
	})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	req, ok := rt.decodeRetrieve(w, r)
	if !ok {
		return
	}

	result, err := rt.svc.Queries.Ask(r.Context(), req)
	if err != nil {
		rt.writeDomainError(w, r, "ask", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) evaluate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query    string                `json:"query"`
		Evidence []domain.EvidenceItem `json:"evidence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	eval := rt.svc.Evaluator.Evaluate(body.Query, body.Evidence)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":      body.Query,
		"evaluable":  eval.Evaluable(),
		"evaluation": eval,
	})
}

func (rt *Router) ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := rt.svc.Ingestor.IngestCorpus(r.Context())
	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordIngest(stats, time.Since(start), err)
	}
	if err != nil {
		rt.writeDomainError(w, r, "ingest", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"corpus":       stats,
		"capabilities": rt.svc.Retriever.Capabilities(),
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Uploads == nil {
		writeError(w, http.StatusNotImplemented, "document uploads are disabled")
		return
	}
	if rt.cfg.APIMaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(rt.cfg.APIMaxUploadBytes))
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	key, err := rt.svc.Uploads.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.writeDomainError(w, r, "upload", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"key": key, "status": "stored"})
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed", "op", op, "request_id", requestIDFromContext(r.Context()), "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
