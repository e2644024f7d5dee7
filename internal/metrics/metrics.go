// Package metrics exposes embedding service measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "holocron"

// Metrics owns an isolated registry and the embedding collectors. It
// implements lazymodel.Recorder.
type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	constructionsTotal   *prometheus.CounterVec
	constructionDuration prometheus.Histogram
	modelReady           prometheus.Gauge
	inFlight             prometheus.Gauge
	pagesIndexed         prometheus.Gauge
}

// New registers the collectors, plus the Go and process collectors when
// withRuntime is set.
func New(withRuntime bool) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		Registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Embedding requests by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request latency, including waiting for model access.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"outcome"}),
		constructionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_constructions_total",
			Help:      "Model construction attempts by outcome.",
		}, []string{"outcome"}),
		constructionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_construction_duration_seconds",
			Help:      "Time spent fetching and loading the model.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		modelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_ready",
			Help:      "1 once the model is loaded.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "embedding_requests_in_flight",
			Help:      "Embedding requests waiting for or holding model access.",
		}),
		pagesIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pages_indexed",
			Help:      "Pages in the search index.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.constructionsTotal,
		m.constructionDuration,
		m.modelReady,
		m.inFlight,
		m.pagesIndexed,
	)
	if withRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one GetEmbedding call.
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveConstruction counts one construction attempt.
func (m *Metrics) ObserveConstruction(outcome string, d time.Duration) {
	m.constructionsTotal.WithLabelValues(outcome).Inc()
	m.constructionDuration.Observe(d.Seconds())
}

// SetReady sets the model_ready gauge.
func (m *Metrics) SetReady(ready bool) {
	if ready {
		m.modelReady.Set(1)
		return
	}
	m.modelReady.Set(0)
}

// AddInFlight adjusts the in-flight gauge.
func (m *Metrics) AddInFlight(delta float64) {
	m.inFlight.Add(delta)
}

// SetPagesIndexed sets the page count gauge.
func (m *Metrics) SetPagesIndexed(n int) {
	m.pagesIndexed.Set(float64(n))
}
