// Package httpadapter exposes the result store over HTTP: spreadsheet
// import, session browsing, barcode search and export jobs.
package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/diagnostiq/qft-results/internal/core/ports"
	"github.com/diagnostiq/qft-results/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	importer ports.ResultImporter
	sessions ports.SessionService
	searcher ports.SampleSearcher
	exports  ports.ExportService

	metrics        *metrics.HTTPServerMetrics
	importLimiter  *clientLimiter
	maxUploadBytes int64
}

type RouterOptions struct {
	Metrics *metrics.HTTPServerMetrics

	// ImportRatePerMinute caps spreadsheet uploads per client address;
	// zero disables the limiter.
	ImportRatePerMinute int
	ImportBurst         int
	MaxUploadBytes      int64
}

func NewRouter(
	importer ports.ResultImporter,
	sessions ports.SessionService,
	searcher ports.SampleSearcher,
	exports ports.ExportService,
	options RouterOptions,
) *Router {
	maxUpload := options.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	var limiter *clientLimiter
	if options.ImportRatePerMinute > 0 {
		limiter = newClientLimiter(float64(options.ImportRatePerMinute)/60.0, options.ImportBurst)
	}
	return &Router{
		importer:       importer,
		sessions:       sessions,
		searcher:       searcher,
		exports:        exports,
		metrics:        options.Metrics,
		importLimiter:  limiter,
		maxUploadBytes: maxUpload,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/imports", rt.uploadResults)
	mux.HandleFunc("/v1/sessions", rt.listSessions)
	mux.HandleFunc("/v1/sessions/", rt.sessionByID)
	mux.HandleFunc("/v1/search", rt.searchBarcode)
	mux.HandleFunc("/v1/exports", rt.requestExport)
	mux.HandleFunc("/v1/exports/", rt.exportByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
