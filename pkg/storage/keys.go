package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrEmptyKey   = errors.New("blob key is empty")
	ErrInvalidKey = errors.New("invalid blob key")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// checkKey accepts slash separated relative keys whose segments are neither
// empty nor dot segments.
func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return checkSegments(key)
}

// checkPrefix applies the key rules to a list prefix, which may be empty or
// end in a slash.
func checkPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	return checkSegments(strings.TrimSuffix(prefix, "/"))
}

func checkSegments(key string) error {
	if strings.ContainsRune(key, '\\') {
		return fmt.Errorf("%w %q: backslash", ErrInvalidKey, key)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w %q: absolute", ErrInvalidKey, key)
	}
	for seg := range strings.SplitSeq(key, "/") {
		switch seg {
		case "":
			if key != "" {
				return fmt.Errorf("%w %q: empty segment", ErrInvalidKey, key)
			}
		case ".", "..":
			return fmt.Errorf("%w %q: dot segment", ErrInvalidKey, key)
		}
	}
	return nil
}
