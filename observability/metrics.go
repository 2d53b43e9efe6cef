package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for analyses and remote calls.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec // labels: outcome={ok,no_imagery,error}
	AnalysisDuration prometheus.Histogram

	ImageryRequests *prometheus.CounterVec   // labels: op={analyze,tile}, outcome={success,error}
	ImageryDuration *prometheus.HistogramVec // labels: op

	NarrativeResults  *prometheus.CounterVec // labels: status={generated,skipped,failed}
	NarrativeDuration prometheus.Histogram

	HTTPRequests *prometheus.CounterVec // labels: method, status
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pasturewatch",
			Name:      "analyses_total",
			Help:      "Analyses requested, by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pasturewatch",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end duration of an analysis request.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		ImageryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pasturewatch",
			Name:      "imagery_requests_total",
			Help:      "Imagery processor requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		ImageryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pasturewatch",
			Name:      "imagery_request_duration_seconds",
			Help:      "Imagery processor request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		NarrativeResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pasturewatch",
			Name:      "narrative_results_total",
			Help:      "Narrative generation results by status.",
		}, []string{"status"}),
		NarrativeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pasturewatch",
			Name:      "narrative_duration_seconds",
			Help:      "Generative-text request duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pasturewatch",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "status"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.ImageryRequests,
		m.ImageryDuration,
		m.NarrativeResults,
		m.NarrativeDuration,
		m.HTTPRequests,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
