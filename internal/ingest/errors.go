package ingest

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/dcma/internal/batch"
)

var (
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
)

// MapHTTPStatus maps ingest errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile), errors.Is(err, batch.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, batch.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrExists), errors.Is(err, batch.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, batch.ErrCorruptData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
