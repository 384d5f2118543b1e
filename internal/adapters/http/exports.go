package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

func (rt *Router) requestExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Format    string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}
	format, err := domain.ParseExportFormat(req.Format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	job, err := rt.exports.Request(r.Context(), req.SessionID, format)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExportSubmitted(serviceName, string(format))
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) exportByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/exports/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "export job id is required"})
		return
	}

	switch sub {
	case "":
		job, err := rt.exports.GetJob(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	case "download":
		rt.downloadExport(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func (rt *Router) downloadExport(w http.ResponseWriter, r *http.Request, id string) {
	job, rc, err := rt.exports.OpenArtifact(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(job.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ArtifactKey))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func contentTypeFor(format domain.ExportFormat) string {
	switch format {
	case domain.ExportPDF:
		return "application/pdf"
	case domain.ExportExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case domain.ExportCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
