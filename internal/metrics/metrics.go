// Package metrics holds the Prometheus collectors for render jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reel"

// Render job outcomes.
const (
	StatusDone     = "done"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Metrics is a set of collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	rendersTotal   *prometheus.CounterVec
	renderDuration prometheus.Histogram
	inFlight       prometheus.Gauge
	progress       prometheus.Gauge
	httpRequests   *prometheus.CounterVec
}

// New registers the render collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Render jobs finished, by status.",
		}, []string{"status"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Wall time of render jobs from pop to finish.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "renders_in_flight",
			Help:      "Render jobs currently being processed.",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "render_progress_percent",
			Help:      "Last reported progress of the current render.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.inFlight,
		m.progress,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RenderStarted marks a job in flight and returns a func that records its
// outcome and duration.
func (m *Metrics) RenderStarted() func(status string) {
	m.inFlight.Inc()
	m.progress.Set(0)
	start := time.Now()
	return func(status string) {
		m.inFlight.Dec()
		m.rendersTotal.WithLabelValues(status).Inc()
		m.renderDuration.Observe(time.Since(start).Seconds())
	}
}

// RenderProgress records the last emitted progress step.
func (m *Metrics) RenderProgress(percent int) {
	m.progress.Set(float64(percent))
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(route, code string) {
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// Registry exposes the registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
