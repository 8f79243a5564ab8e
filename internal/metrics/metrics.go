package metrics

import (
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/attribution"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "run_creation"

// Metrics records engine and pipeline activity. It satisfies
// attribution.Observer.
type Metrics struct {
	registry *prometheus.Registry

	linesClassified   *prometheus.CounterVec
	unresolvedHeaders prometheus.Counter
	scansCompleted    *prometheus.CounterVec
	scanDuration      prometheus.Histogram
}

// New registers every collector on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_classified_total",
			Help:      "Narration lines classified, by event kind.",
		}, []string{"kind"}),
		unresolvedHeaders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_headers_total",
			Help:      "Half-inning headers whose team label matched no club.",
		}),
		scansCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_completed_total",
			Help:      "Pipeline runs, by outcome.",
		}, []string{"status"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a full pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.linesClassified,
		m.unresolvedHeaders,
		m.scansCompleted,
		m.scanDuration,
	)

	// pre-create label values so every kind is exported from the start
	for _, kind := range attribution.Kinds() {
		m.linesClassified.WithLabelValues(kind.String())
	}

	return m
}

// ObserveLine counts one classified line
func (m *Metrics) ObserveLine(kind attribution.EventKind) {
	m.linesClassified.WithLabelValues(kind.String()).Inc()
}

// ObserveUnresolvedHeader counts a header that could not be attributed
func (m *Metrics) ObserveUnresolvedHeader(string) {
	m.unresolvedHeaders.Inc()
}

// ObserveScan records one pipeline run
func (m *Metrics) ObserveScan(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.scansCompleted.WithLabelValues(status).Inc()
	m.scanDuration.Observe(d.Seconds())
}

// Registry exposes the registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
