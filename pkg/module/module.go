// Package module mounts independently configured handler trees under
// single-segment path prefixes.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/dcma/pkg/middleware"
)

// ErrInvalidPrefix is returned by New for a prefix that is not exactly one
// path segment.
var ErrInvalidPrefix = errors.New("invalid module prefix")

// Module serves handler below prefix. The handler sees paths with the prefix
// removed and runs inside the module's own middleware chain.
type Module struct {
	prefix  string
	handler http.Handler
	chain   middleware.Chain
}

// New creates a Module for a prefix such as "/api".
func New(prefix string, handler http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{prefix: prefix, handler: handler}, nil
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. The first middleware added is the outermost.
func (m *Module) Use(mw ...middleware.Middleware) {
	m.chain.Use(mw...)
}

// Handler returns the module's handler wrapped in its middleware and prefix
// stripping. Middleware added afterwards does not affect the result.
func (m *Module) Handler() http.Handler {
	return m.chain.Then(stripPrefix(m.prefix, m.handler))
}

func stripPrefix(prefix string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, prefix)
		if rest == "" {
			rest = "/"
		}
		inner := r.Clone(r.Context())
		inner.URL.Path = rest
		inner.URL.RawPath = ""
		next.ServeHTTP(w, inner)
	})
}

func validatePrefix(prefix string) error {
	rest, ok := strings.CutPrefix(prefix, "/")
	switch {
	case !ok:
		return fmt.Errorf("%w %q: must start with /", ErrInvalidPrefix, prefix)
	case rest == "":
		return fmt.Errorf("%w %q: empty segment", ErrInvalidPrefix, prefix)
	case strings.Contains(rest, "/"):
		return fmt.Errorf("%w %q: more than one segment", ErrInvalidPrefix, prefix)
	}
	return nil
}
