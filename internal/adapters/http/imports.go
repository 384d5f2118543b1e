package httpadapter

import (
	"errors"
	"net/http"
	"strconv"
)

func (rt *Router) uploadResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if rt.importLimiter != nil && !rt.importLimiter.Allow(r.RemoteAddr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "import rate limit exceeded"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	merge := false
	if v := r.FormValue("merge"); v != "" {
		merge, err = strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "merge must be a boolean"})
			return
		}
	}

	session, stored, err := rt.importer.Import(
		r.Context(),
		fileHeader.Filename,
		r.FormValue("session_name"),
		merge,
		file,
	)
	if rt.metrics != nil {
		rt.metrics.RecordImport(serviceName, stored, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session":        session,
		"stored_records": stored,
	})
}
