package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const namespace = "evidence"

type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal    *prometheus.CounterVec
	retrievalDuration *prometheus.HistogramVec
	retrievalEvidence *prometheus.HistogramVec
	emptyResultTotal  *prometheus.CounterVec
	evaluationScore   *prometheus.HistogramVec
	notEvaluableTotal *prometheus.CounterVec
	ingestTotal       *prometheus.CounterVec
	ingestDuration    prometheus.Histogram
	corpusSize        *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total completed query round trips by retrieval method.",
		},
		[]string{"service", "method"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Query round trip duration in seconds by retrieval method.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method"},
	)
	retrievalEvidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "evidence_items",
			Help:      "Distribution of fused evidence items per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "method"},
	)
	emptyResultTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "empty_total",
			Help:      "Total queries that produced no evidence.",
		},
		[]string{"service", "method"},
	)
	evaluationScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "score",
			Help:      "Rubric evaluation scores of evaluable queries.",
			Buckets:   []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
		},
		[]string{"service", "method", "metric"},
	)
	notEvaluableTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "not_evaluable_total",
			Help:      "Total queries that matched no rubric.",
		},
		[]string{"service", "method"},
	)
	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total corpus ingestion runs by status.",
		},
		[]string{"service", "status"},
	)
	ingestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Corpus ingestion duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	corpusSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "items",
			Help:      "Items in the live index snapshot by kind.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalDuration,
		retrievalEvidence,
		emptyResultTotal,
		evaluationScore,
		notEvaluableTotal,
		ingestTotal,
		ingestDuration,
		corpusSize,
	)

	return &HTTPServerMetrics{
		service:           service,
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		retrievalTotal:    retrievalTotal,
		retrievalDuration: retrievalDuration,
		retrievalEvidence: retrievalEvidence,
		emptyResultTotal:  emptyResultTotal,
		evaluationScore:   evaluationScore,
		notEvaluableTotal: notEvaluableTotal,
		ingestTotal:       ingestTotal,
		ingestDuration:    ingestDuration,
		corpusSize:        corpusSize,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps the path label bounded when clients probe unknown URLs.
func normalizePath(path string) string {
	switch {
	case path == "/healthz", path == "/metrics", strings.HasPrefix(path, "/v1/"):
		return path
	default:
		return "other"
	}
}

// ObserveQuery satisfies usecase.QueryObserver.
func (m *HTTPServerMetrics) ObserveQuery(method domain.Method, latency time.Duration, evidence int, eval domain.Evaluation) {
	label := string(method)
	if label == "" {
		label = "unknown"
	}
	m.retrievalTotal.WithLabelValues(m.service, label).Inc()
	m.retrievalDuration.WithLabelValues(m.service, label).Observe(latency.Seconds())
	m.retrievalEvidence.WithLabelValues(m.service, label).Observe(float64(evidence))
	if evidence == 0 {
		m.emptyResultTotal.WithLabelValues(m.service, label).Inc()
	}

	if !eval.Evaluable() {
		m.notEvaluableTotal.WithLabelValues(m.service, label).Inc()
		return
	}
	m.evaluationScore.WithLabelValues(m.service, label, "precision_at_5").Observe(eval.PrecisionAt5)
	m.evaluationScore.WithLabelValues(m.service, label, "recall_at_10").Observe(eval.RecallAt10)
}

func (m *HTTPServerMetrics) RecordIngest(stats domain.CorpusStats, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ingestTotal.WithLabelValues(m.service, status).Inc()
	m.ingestDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	m.corpusSize.WithLabelValues(m.service, "pages").Set(float64(stats.Pages))
	m.corpusSize.WithLabelValues(m.service, "text_chunks").Set(float64(stats.TextChunks))
	m.corpusSize.WithLabelValues(m.service, "images").Set(float64(stats.Images))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
