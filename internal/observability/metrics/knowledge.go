package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// KnowledgeMetrics implements ports.KnowledgeObserver.
type KnowledgeMetrics struct {
	ingestTotal      *prometheus.CounterVec
	ingestDuration   *prometheus.HistogramVec
	chunksTotal      *prometheus.CounterVec
	retrievalTotal   *prometheus.CounterVec
	retrievalLatency prometheus.Histogram
	vectorHits       prometheus.Histogram
	structuredHits   prometheus.Counter
}

// NewKnowledgeMetrics registers on reg with service as a constant label.
func NewKnowledgeMetrics(service string, reg prometheus.Registerer) *KnowledgeMetrics {
	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Ingested documents by final status.",
		},
		[]string{"status"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Ingestion pipeline duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)
	chunksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunks produced by ingestion, split by embedding outcome.",
		},
		[]string{"outcome"},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Knowledge searches by outcome.",
		},
		[]string{"outcome"},
	)
	retrievalLatency := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Knowledge search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	vectorHits := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "vector_hits",
			Help:      "Chunks scoring above the relevance threshold per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)
	structuredHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "structured_hits_total",
			Help:      "Searches answered with a reference catalog entry.",
		},
	)

	withService(service, reg).MustRegister(ingestTotal, ingestDuration, chunksTotal, retrievalTotal, retrievalLatency, vectorHits, structuredHits)

	return &KnowledgeMetrics{
		ingestTotal:      ingestTotal,
		ingestDuration:   ingestDuration,
		chunksTotal:      chunksTotal,
		retrievalTotal:   retrievalTotal,
		retrievalLatency: retrievalLatency,
		vectorHits:       vectorHits,
		structuredHits:   structuredHits,
	}
}

func (m *KnowledgeMetrics) ObserveIngest(status string, duration time.Duration, chunks, embedded int) {
	if status == "" {
		status = "unknown"
	}
	m.ingestTotal.WithLabelValues(status).Inc()
	m.ingestDuration.WithLabelValues(status).Observe(duration.Seconds())

	if embedded > 0 {
		m.chunksTotal.WithLabelValues("embedded").Add(float64(embedded))
	}
	if failed := chunks - embedded; failed > 0 {
		m.chunksTotal.WithLabelValues("unembedded").Add(float64(failed))
	}
}

func (m *KnowledgeMetrics) ObserveRetrieval(vectorHits int, structuredHit, noData bool, duration time.Duration) {
	outcome := "context"
	if noData {
		outcome = "no_data"
	}
	m.retrievalTotal.WithLabelValues(outcome).Inc()
	m.retrievalLatency.Observe(duration.Seconds())
	m.vectorHits.Observe(float64(vectorHits))
	if structuredHit {
		m.structuredHits.Inc()
	}
}
