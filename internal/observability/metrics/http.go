package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	importsTotal     *prometheus.CounterVec
	importRows       *prometheus.HistogramVec
	searchesTotal    *prometheus.CounterVec
	searchHits       *prometheus.HistogramVec
	exportsSubmitted *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qft",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qft",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "qft",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	importsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qft",
			Subsystem: "import",
			Name:      "files_total",
			Help:      "Total imported result files by status.",
		},
		[]string{"service", "status"},
	)
	importRows := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qft",
			Subsystem: "import",
			Name:      "rows",
			Help:      "Distribution of stored rows per successful import.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	searchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qft",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total barcode searches.",
		},
		[]string{"service"},
	)
	searchHits := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qft",
			Subsystem: "search",
			Name:      "hits",
			Help:      "Distribution of hits per barcode search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	exportsSubmitted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qft",
			Subsystem: "export",
			Name:      "submitted_total",
			Help:      "Total export jobs submitted by format.",
		},
		[]string{"service", "format"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		importsTotal,
		importRows,
		searchesTotal,
		searchHits,
		exportsSubmitted,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		importsTotal:     importsTotal,
		importRows:       importRows,
		searchesTotal:    searchesTotal,
		searchHits:       searchHits,
		exportsSubmitted: exportsSubmitted,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses resource ids so label cardinality stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/sessions/"):
		return "/v1/sessions/{session_id}"
	case strings.HasPrefix(path, "/v1/exports/"):
		return "/v1/exports/{job_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordImport(service string, rows int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.importsTotal.WithLabelValues(service, status).Inc()
	if err == nil && rows > 0 {
		m.importRows.WithLabelValues(service).Observe(float64(rows))
	}
}

func (m *HTTPServerMetrics) RecordSearch(service string, hits int) {
	m.searchesTotal.WithLabelValues(service).Inc()
	m.searchHits.WithLabelValues(service).Observe(float64(hits))
}

func (m *HTTPServerMetrics) RecordExportSubmitted(service, format string) {
	if format == "" {
		format = "unknown"
	}
	m.exportsSubmitted.WithLabelValues(service, format).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
