package httpadapter

import (
	"net/http"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func mapErrorToHTTPStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrInvalidInput:
		return http.StatusBadRequest
	case domain.ErrExtraction:
		return http.StatusUnprocessableEntity
	case domain.ErrDocumentNotFound:
		return http.StatusNotFound
	case domain.ErrTemporary:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
