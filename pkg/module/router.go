package module

import (
	"fmt"
	"net/http"
	"strings"
)

// Router sends each request to the module owning its first path segment and
// everything else to a fallback mux.
type Router struct {
	modules map[string]http.Handler
	native  *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules: map[string]http.Handler{},
		native:  http.NewServeMux(),
	}
}

// HandleNative registers pattern on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount captures m's handler under its prefix. Mounting two modules at the
// same prefix is an error.
func (r *Router) Mount(m *Module) error {
	if _, ok := r.modules[m.prefix]; ok {
		return fmt.Errorf("%w %q: already mounted", ErrInvalidPrefix, m.prefix)
	}
	r.modules[m.prefix] = m.Handler()
	return nil
}

// ServeHTTP trims one trailing slash from the path before dispatching.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	if h, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		h.ServeHTTP(w, req)
		return
	}
	r.native.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	rest := strings.TrimPrefix(path, "/")
	seg, _, _ := strings.Cut(rest, "/")
	return "/" + seg
}
