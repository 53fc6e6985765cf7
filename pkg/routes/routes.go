// Package routes declares HTTP endpoints as data so each domain handler can
// describe its surface and the API module can mount them together.
package routes

import "net/http"

// Route binds a method and a path pattern, relative to its group, to a
// handler. Patterns use net/http wildcards such as "/{id}".
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group shares a path prefix across routes and nested groups.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register mounts every route in groups on mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.each("", func(pattern string, h http.HandlerFunc) {
			mux.HandleFunc(pattern, h)
		})
	}
}

// Patterns returns the ServeMux patterns Register would add, in order.
func Patterns(groups ...Group) []string {
	var out []string
	for _, g := range groups {
		g.each("", func(pattern string, _ http.HandlerFunc) {
			out = append(out, pattern)
		})
	}
	return out
}

func (g Group) each(parent string, fn func(pattern string, h http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.Method+" "+prefix+r.Pattern, r.Handler)
	}
	for _, child := range g.Children {
		child.each(prefix, fn)
	}
}
