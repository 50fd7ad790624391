package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
)

type IngestMetrics struct {
	registry *prometheus.Registry

	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec

	tendersFetched   prometheus.Counter
	tendersAccepted  prometheus.Counter
	tendersSkipped   prometheus.Counter
	messagesSent     prometheus.Counter
	messagesRejected prometheus.Counter
}

func NewIngestMetrics(service string) *IngestMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "tender",
			Subsystem:   "ingest",
			Name:        "runs_total",
			Help:        "Total ingestion runs by final status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "tender",
			Subsystem:   "ingest",
			Name:        "run_duration_seconds",
			Help:        "Ingestion run duration in seconds by final status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	tendersFetched := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "tender",
		Subsystem:   "ingest",
		Name:        "tenders_fetched_total",
		Help:        "Total raw listings returned by the source.",
		ConstLabels: constLabels,
	})
	tendersAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "tender",
		Subsystem:   "ingest",
		Name:        "tenders_accepted_total",
		Help:        "Total listings that survived normalization.",
		ConstLabels: constLabels,
	})
	tendersSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "tender",
		Subsystem:   "ingest",
		Name:        "tenders_skipped_total",
		Help:        "Total listings excluded during normalization.",
		ConstLabels: constLabels,
	})
	messagesSent := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "tender",
		Subsystem:   "ingest",
		Name:        "messages_sent_total",
		Help:        "Total queue entries confirmed by the transport.",
		ConstLabels: constLabels,
	})
	messagesRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "tender",
		Subsystem:   "ingest",
		Name:        "messages_rejected_total",
		Help:        "Total queue entries not confirmed by the transport.",
		ConstLabels: constLabels,
	})

	registry.MustRegister(
		runsTotal, runDuration,
		tendersFetched, tendersAccepted, tendersSkipped,
		messagesSent, messagesRejected,
	)

	return &IngestMetrics{
		registry:         registry,
		runsTotal:        runsTotal,
		runDuration:      runDuration,
		tendersFetched:   tendersFetched,
		tendersAccepted:  tendersAccepted,
		tendersSkipped:   tendersSkipped,
		messagesSent:     messagesSent,
		messagesRejected: messagesRejected,
	}
}

func (m *IngestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records one completed run. Counters reflect the summary, so a
// failed run still contributes its partial counts.
func (m *IngestMetrics) ObserveRun(summary domain.RunSummary, duration time.Duration) {
	status := string(summary.Status)
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())

	m.tendersFetched.Add(float64(summary.Fetched))
	m.tendersAccepted.Add(float64(summary.Accepted))
	m.tendersSkipped.Add(float64(summary.Skipped))
	m.messagesSent.Add(float64(summary.Sent))
	if rejected := summary.Accepted - summary.Sent; rejected > 0 {
		m.messagesRejected.Add(float64(rejected))
	}
}
