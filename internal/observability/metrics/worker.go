package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

const (
	archiveStored   = "stored"
	archiveRejected = "rejected"
	archiveFailed   = "failed"
)

// ArchiveMetrics tracks interaction events archived by the worker.
type ArchiveMetrics struct {
	registry *prometheus.Registry

	archived   *prometheus.CounterVec
	persistDur *prometheus.HistogramVec
	pending    prometheus.Gauge
	eventAge   prometheus.Histogram
	unscored   prometheus.Counter
}

func NewArchiveMetrics(service string) *ArchiveMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	archived := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "archive",
			Name:        "interactions_total",
			Help:        "Consumed interaction events by retrieval method and outcome.",
			ConstLabels: labels,
		},
		[]string{"method", "outcome"},
	)
	persistDur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "archive",
			Name:        "persist_duration_seconds",
			Help:        "Time spent validating and storing one interaction.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   "archive",
		Name:        "pending",
		Help:        "Interaction events received but not yet archived.",
		ConstLabels: labels,
	})
	eventAge := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   "archive",
		Name:        "event_age_seconds",
		Help:        "Age of an interaction event, from query time to archive start.",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		ConstLabels: labels,
	})
	unscored := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   "archive",
		Name:        "unscored_total",
		Help:        "Archived interactions whose query matched no rubric.",
		ConstLabels: labels,
	})

	registry.MustRegister(archived, persistDur, pending, eventAge, unscored)

	return &ArchiveMetrics{
		registry:   registry,
		archived:   archived,
		persistDur: persistDur,
		pending:    pending,
		eventAge:   eventAge,
		unscored:   unscored,
	}
}

func (m *ArchiveMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Track marks the interaction as pending and returns the callback that
// records how archiving it ended.
func (m *ArchiveMetrics) Track(in domain.Interaction, now time.Time) func(err error) {
	if age := now.Sub(in.Timestamp); !in.Timestamp.IsZero() && age >= 0 {
		m.eventAge.Observe(age.Seconds())
	}
	m.pending.Inc()
	started := time.Now()

	return func(err error) {
		m.pending.Dec()
		outcome := archiveOutcome(err)
		m.archived.WithLabelValues(methodLabel(in.Mode), outcome).Inc()
		m.persistDur.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
		if outcome == archiveStored && !evaluationOf(in).Evaluable() {
			m.unscored.Inc()
		}
	}
}

func archiveOutcome(err error) string {
	switch {
	case err == nil:
		return archiveStored
	case domain.IsKind(err, domain.ErrInvalidInput):
		return archiveRejected
	default:
		return archiveFailed
	}
}

// methodLabel bounds label cardinality for malformed events.
func methodLabel(mode domain.Method) string {
	method, err := domain.ParseMethod(string(mode))
	if err != nil {
		return "unknown"
	}
	return string(method)
}

func evaluationOf(in domain.Interaction) domain.Evaluation {
	return domain.Evaluation{PrecisionAt5: in.PrecisionAt5, RecallAt10: in.RecallAt10}
}
