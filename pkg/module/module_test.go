package module_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/dcma/pkg/middleware"
	"github.com/JaimeStill/dcma/pkg/module"
)

func echoPath(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.URL.Path))
}

func mustModule(t *testing.T, prefix string, h http.Handler) *module.Module {
	t.Helper()
	m, err := module.New(prefix, h)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewRejectsPrefix(t *testing.T) {
	for _, prefix := range []string{"", "/", "api", "/api/v1", "/api/"} {
		if _, err := module.New(prefix, http.NotFoundHandler()); !errors.Is(err, module.ErrInvalidPrefix) {
			t.Errorf("%q: got %v, want ErrInvalidPrefix", prefix, err)
		}
	}
}

func TestHandlerStripsPrefix(t *testing.T) {
	m := mustModule(t, "/api", http.HandlerFunc(echoPath))
	h := m.Handler()

	tests := []struct {
		path string
		want string
	}{
		{"/api", "/"},
		{"/api/batches/BI1", "/batches/BI1"},
		{"/api/archive/batches%2FBI1", "/archive/batches/BI1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			orig := req.URL.Path
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("inner path: got %q, want %q", got, tt.want)
			}
			if req.URL.Path != orig {
				t.Errorf("caller request mutated to %q", req.URL.Path)
			}
		})
	}
}

func TestMiddlewareSeesFullPath(t *testing.T) {
	var seen []string
	m := mustModule(t, "/api", http.HandlerFunc(echoPath))
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}, middleware.RequestID())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/history", nil))

	if !slices.Equal(seen, []string{"/api/history"}) {
		t.Errorf("middleware saw %v", seen)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("second middleware did not run")
	}
}

func TestRouter(t *testing.T) {
	router := module.NewRouter()
	if err := router.Mount(mustModule(t, "/api", http.HandlerFunc(echoPath))); err != nil {
		t.Fatal(err)
	}
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("healthy"))
	})

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"module", "/api/batches", http.StatusOK, "/batches"},
		{"module root", "/api", http.StatusOK, "/"},
		{"trailing slash", "/api/batches/", http.StatusOK, "/batches"},
		{"native", "/healthz", http.StatusOK, "healthy"},
		{"prefix lookalike", "/apix/batches", http.StatusNotFound, ""},
		{"unknown", "/docs", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body: got %q, want %q", rec.Body, tt.body)
			}
		})
	}
}

func TestRouterRejectsDuplicateMount(t *testing.T) {
	router := module.NewRouter()
	if err := router.Mount(mustModule(t, "/api", http.NotFoundHandler())); err != nil {
		t.Fatal(err)
	}
	if err := router.Mount(mustModule(t, "/api", http.NotFoundHandler())); !errors.Is(err, module.ErrInvalidPrefix) {
		t.Errorf("second mount: got %v", err)
	}
}
