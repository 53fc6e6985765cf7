package hocr

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/dcma/internal/batch"
)

// ErrUnknownEngine indicates no OCR engine is registered under a name.
var ErrUnknownEngine = errors.New("unknown ocr engine")

// MapHTTPStatus maps HOCR errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, batch.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrInvalidArgument), errors.Is(err, ErrUnknownEngine):
		return http.StatusBadRequest
	case errors.Is(err, batch.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, batch.ErrParse), errors.Is(err, batch.ErrCorruptData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
