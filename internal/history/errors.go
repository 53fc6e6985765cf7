package history

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/dcma/pkg/pagination"
)

// Domain errors for manual step history operations.
var (
	ErrNotFound         = errors.New("step history not found")
	ErrDuplicate        = errors.New("step history already exists")
	ErrInvalidKey       = errors.New("batch instance id, status and user name are required")
	ErrNegativeDuration = errors.New("duration must not be negative")
)

// MapHTTPStatus maps history domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrNegativeDuration) ||
		errors.Is(err, pagination.ErrInvalidPage) || errors.Is(err, pagination.ErrInvalidSort) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
