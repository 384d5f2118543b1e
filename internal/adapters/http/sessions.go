package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

func (rt *Router) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sessions, err := rt.sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (rt *Router) sessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			rt.getSession(w, r, id)
		case http.MethodPatch:
			rt.renameSession(w, r, id)
		case http.MethodDelete:
			rt.deleteSession(w, r, id)
		default:
			methodNotAllowed(w)
		}
	case "summary":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		rt.sessionSummary(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

// recordView is one result row as the UI renders it: raw values plus the
// derived annotation.
type recordView struct {
	domain.LabResult
	Comment string `json:"comment"`
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request, id string) {
	var sortField domain.SortField
	if raw := r.URL.Query().Get("sort"); raw != "" {
		field, ok := domain.ParseSortField(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown sort field"})
			return
		}
		sortField = field
	}
	descending := r.URL.Query().Get("order") == "desc"

	session, records, err := rt.sessions.Get(r.Context(), id, sortField, descending)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]recordView, len(records))
	for i, rec := range records {
		views[i] = recordView{LabResult: rec, Comment: domain.Comment(rec)}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"records": views,
	})
}

func (rt *Router) renameSession(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.sessions.Rename(r.Context(), id, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := rt.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) sessionSummary(w http.ResponseWriter, r *http.Request, id string) {
	summary, err := rt.sessions.Summary(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) searchBarcode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	hits, err := rt.searcher.Search(r.Context(), r.URL.Query().Get("barcode"))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSearch(serviceName, len(hits))
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}
