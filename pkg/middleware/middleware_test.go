package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/dcma/pkg/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
})

func TestChainOrder(t *testing.T) {
	var trace []string
	tag := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var c middleware.Chain
	c.Use(tag("request id"), tag("log"))
	c.Use(tag("cors"))
	c.Then(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		trace = append(trace, "handler")
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if want := []string{"request id", "log", "cors", "handler"}; !slices.Equal(trace, want) {
		t.Errorf("got %v, want %v", trace, want)
	}
}

func TestRequestID(t *testing.T) {
	sent := uuid.NewString()

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generated", "", false},
		{"client id kept", sent, true},
		{"malformed client id replaced", "<script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.RequestIDFrom(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(middleware.RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			echoed := rec.Header().Get(middleware.RequestIDHeader)
			if echoed != seen {
				t.Errorf("response id %q differs from context id %q", echoed, seen)
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("id %q is not a uuid", seen)
			}
			if tt.keep != (seen == tt.header) {
				t.Errorf("client id %q, handler saw %q", tt.header, seen)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"implicit ok", 0, "level=INFO"},
		{"not found", http.StatusNotFound, "level=WARN"},
		{"failure", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte("body"))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/batches/BI1?x=1", nil))

			out := logs.String()
			want := tt.status
			if want == 0 {
				want = http.StatusOK
			}
			for _, s := range []string{tt.level, "uri=\"/api/batches/BI1?x=1\"", "bytes=4", "status=" + strconv.Itoa(want)} {
				if !strings.Contains(out, s) {
					t.Errorf("log %q missing %q", out, s)
				}
			}
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"https://review.example"},
		AllowCredentials: true,
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	h := middleware.CORS(cfg)(ok)

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
		wantMaxAge string
	}{
		{"allowed", "GET", "https://review.example", false, http.StatusOK, "https://review.example", ""},
		{"foreign", "GET", "https://evil.example", false, http.StatusOK, "", ""},
		{"preflight", "OPTIONS", "https://review.example", true, http.StatusNoContent, "https://review.example", "3600"},
		{"foreign preflight", "OPTIONS", "https://evil.example", true, http.StatusNoContent, "", ""},
		{"plain options", "OPTIONS", "https://review.example", false, http.StatusOK, "https://review.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/batches", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "DELETE")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin: got %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Max-Age"); got != tt.wantMaxAge {
				t.Errorf("max age: got %q, want %q", got, tt.wantMaxAge)
			}
		})
	}
}

func TestCORSDisabledPassesThrough(t *testing.T) {
	for _, cfg := range []*middleware.CORSConfig{
		{Enabled: false, Origins: []string{"https://review.example"}},
		{Enabled: true},
	} {
		req := httptest.NewRequest("OPTIONS", "/", nil)
		req.Header.Set("Origin", "https://review.example")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := httptest.NewRecorder()
		middleware.CORS(cfg)(ok).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || rec.Header().Get("Vary") != "" {
			t.Errorf("%+v: got %d with headers %v", cfg, rec.Code, rec.Header())
		}
	}
}

func TestCORSConfig(t *testing.T) {
	t.Setenv("DCMA_TEST_CORS_ENABLED", "true")
	t.Setenv("DCMA_TEST_CORS_ORIGINS", "https://a.example, https://b.example")

	var c middleware.CORSConfig
	err := c.Finalize(&middleware.CORSEnv{Enabled: "DCMA_TEST_CORS_ENABLED", Origins: "DCMA_TEST_CORS_ORIGINS"})
	if err != nil {
		t.Fatal(err)
	}
	if !c.Enabled || len(c.Origins) != 2 || c.MaxAge != 3600 {
		t.Errorf("finalized: %+v", c)
	}
	if !slices.Contains(c.AllowedHeaders, middleware.RequestIDHeader) {
		t.Errorf("request id header not allowed: %v", c.AllowedHeaders)
	}

	c.Merge(&middleware.CORSConfig{Origins: []string{"https://c.example"}, MaxAge: 60})
	if !c.Enabled || !slices.Equal(c.Origins, []string{"https://c.example"}) || c.MaxAge != 60 {
		t.Errorf("merged: %+v", c)
	}

	t.Setenv("DCMA_TEST_CORS_ENABLED", "maybe")
	if err := c.Finalize(&middleware.CORSEnv{Enabled: "DCMA_TEST_CORS_ENABLED"}); err == nil {
		t.Error("malformed boolean accepted")
	}
}
