package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	renderTotal    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderInFlight prometheus.Gauge
	queueLag       *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	renderTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qft",
			Subsystem: "worker",
			Name:      "export_render_total",
			Help:      "Total rendered export jobs by status.",
		},
		[]string{"service", "status"},
	)
	renderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qft",
			Subsystem: "worker",
			Name:      "export_render_duration_seconds",
			Help:      "Export render duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	renderInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "qft",
			Subsystem: "worker",
			Name:      "export_render_in_flight",
			Help:      "Number of in-flight export renders.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qft",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between export request and render start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(renderTotal, renderDuration, renderInFlight, queueLag)

	return &WorkerMetrics{
		registry:       registry,
		renderTotal:    renderTotal,
		renderDuration: renderDuration,
		renderInFlight: renderInFlight,
		queueLag:       queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRender() {
	m.renderInFlight.Inc()
}

func (m *WorkerMetrics) FinishRender(service string, duration time.Duration, err error) {
	m.renderInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.renderTotal.WithLabelValues(service, status).Inc()
	m.renderDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
