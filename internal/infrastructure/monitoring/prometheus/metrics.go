// Package prometheus registers and serves the backend's metrics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eli5y"

// Default buckets per concern.
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultLLMDurationBuckets  = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	ConfidenceBuckets          = []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1}
)

// Metrics holds every application metric on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Language-model layer
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMTokensUsed      *prometheus.CounterVec

	// Alignment engine
	AlignmentRunsTotal  *prometheus.CounterVec
	AlignmentDropsTotal *prometheus.CounterVec
	AlignmentGroupCount prometheus.Histogram

	// OCR layer
	OCRRequestsTotal *prometheus.CounterVec
	OCRConfidence    prometheus.Histogram

	// Parse cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// NewMetrics registers all application metrics on a fresh registry that also
// carries process and Go runtime collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   DefaultHTTPDurationBuckets,
		}, []string{"method", "path"}),

		LLMRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Language-model calls by operation and outcome.",
		}, []string{"operation", "status"}),
		LLMRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language-model call duration.",
			Buckets:   DefaultLLMDurationBuckets,
		}, []string{"operation"}),
		LLMTokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Tokens consumed by language-model calls.",
		}, []string{"direction"}),

		AlignmentRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alignment_runs_total",
			Help:      "Alignment engine runs by outcome.",
		}, []string{"status"}),
		AlignmentDropsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alignment_drops_total",
			Help:      "Draft components and symbols dropped during alignment.",
		}, []string{"stage", "reason"}),
		AlignmentGroupCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alignment_group_count",
			Help:      "Semantic groups emitted per successful alignment.",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15},
		}),

		OCRRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_requests_total",
			Help:      "Formula image recognitions by outcome.",
		}, []string{"status"}),
		OCRConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_confidence",
			Help:      "Confidence of recognized formulas.",
			Buckets:   ConfidenceBuckets,
		}),

		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_cache_hits_total",
			Help:      "Parse cache hits.",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_cache_misses_total",
			Help:      "Parse cache misses.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
