package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// AnalysisCount counts engine operations by kind and outcome
	AnalysisCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelens_analyses_total",
			Help: "Total number of analyses and comparisons",
		},
		[]string{"kind", "status"},
	)

	// AnalysisDuration measures engine operation duration
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "codelens_analysis_duration_seconds",
			Help: "Analysis duration in seconds",
		},
		[]string{"kind"},
	)

	// DegradedCount counts results served in a degraded mode
	DegradedCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelens_degraded_total",
			Help: "Results served with degraded quality",
		},
		[]string{"reason"},
	)

	// EmbeddingCache counts embedding lookups by outcome
	EmbeddingCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelens_embedding_cache_total",
			Help: "Embedding cache lookups",
		},
		[]string{"result"},
	)

	// CorpusSize is the number of reference entries
	CorpusSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codelens_corpus_entries",
			Help: "Number of entries in the reference corpus",
		},
	)
)

// InitPrometheus registers all collectors with the default registry.
func InitPrometheus() {
	prometheus.MustRegister(RequestCount)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AnalysisCount)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(DegradedCount)
	prometheus.MustRegister(EmbeddingCache)
	prometheus.MustRegister(CorpusSize)
}

// MetricsHandler returns Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
