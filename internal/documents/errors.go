package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/dcma/internal/batch"
)

// ErrNoImage indicates a page has no image of the requested kind.
var ErrNoImage = errors.New("page has no image")

// MapHTTPStatus maps batch errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, batch.ErrNotFound), errors.Is(err, ErrNoImage):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, batch.ErrExists), errors.Is(err, batch.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, batch.ErrCorruptData), errors.Is(err, batch.ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
