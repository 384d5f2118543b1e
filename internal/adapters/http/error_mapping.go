package httpadapter

import (
	"net/http"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSessionNotFound),
		domain.IsKind(err, domain.ErrExportNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDuplicateName):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
