package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/dcma/internal/api"
	"github.com/JaimeStill/dcma/internal/config"
	"github.com/JaimeStill/dcma/internal/hocr"
	"github.com/JaimeStill/dcma/internal/imaging"
	"github.com/JaimeStill/dcma/internal/infrastructure"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/pkg/database"
	"github.com/JaimeStill/dcma/pkg/middleware"
	"github.com/JaimeStill/dcma/pkg/module"
	"github.com/JaimeStill/dcma/pkg/pagination"
	"github.com/JaimeStill/dcma/pkg/routes"
	"github.com/JaimeStill/dcma/pkg/storage"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Logging: config.LoggingConfig{Level: "error"},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "dcma",
			User:            "dcma",
			Password:        "dcma",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			Provider: storage.ProviderLocal,
			Root:     filepath.Join(root, "archive"),
		},
		Folders: paths.Config{
			LocalFolder: filepath.Join(root, "batches"),
		},
		Imaging: imaging.Config{ThumbnailWidth: 160, DisplayWidth: 1024},
		HOCR:    hocr.Config{Engine: "tesseract", Languages: []string{"eng"}, Concurrency: 2},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "10MB",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
	if err := cfg.Folders.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.HOCR.Concurrency != 2 {
		t.Errorf("hocr concurrency: got %d, want 2", runtime.HOCR.Concurrency)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Logger == infra.Logger {
		t.Error("runtime logger should be module scoped")
	}
	if runtime.Store == nil || runtime.Paths == nil {
		t.Error("runtime batch persistence is nil")
	}
	if runtime.Database == nil || runtime.Storage == nil || runtime.Lifecycle == nil {
		t.Error("runtime infrastructure incomplete")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	domain := api.NewDomain(runtime)
	if domain.Documents == nil || domain.HOCR == nil || domain.Ingest == nil || domain.History == nil {
		t.Fatalf("NewDomain() left systems unset: %+v", domain)
	}
}

func TestModuleRoutes(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatal(err)
	}
	router := module.NewRouter()
	if err := router.Mount(m); err != nil {
		t.Fatal(err)
	}

	key := "batches/BI1/BI1_batch_review.xml"
	if err := infra.Storage.Upload(context.Background(), key, bytes.NewReader([]byte("<Batch/>")), "application/xml"); err != nil {
		t.Fatalf("seed archive: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		want   int
		body   string
	}{
		{"missing batch", http.MethodGet, "/api/batches/BI404", http.StatusNotFound, ""},
		{"missing hocr", http.MethodGet, "/api/batches/BI404/hocr/pages/PG1", http.StatusNotFound, ""},
		{"archive list", http.MethodGet, "/api/archive?prefix=batches/BI1/", http.StatusOK, key},
		{"archive download", http.MethodGet, "/api/archive/" + key, http.StatusOK, "<Batch/>"},
		{"archive missing", http.MethodGet, "/api/archive/batches/BI2/x.xml", http.StatusNotFound, ""},
		{"archive traversal", http.MethodGet, "/api/archive?prefix=..", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.want {
				t.Fatalf("status: got %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if tt.body != "" && !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("body %q does not contain %q", rec.Body, tt.body)
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("response carries no request id")
			}
		})
	}
}

func TestGroups(t *testing.T) {
	cfg := validConfig(t)
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	patterns := routes.Patterns(api.Groups(cfg, api.NewDomain(runtime), runtime)...)

	for _, want := range []string{
		"GET /batches/{id}",
		"GET /batches/{id}/files/{name}",
		"GET /history/{id}",
		"DELETE /history/{id}",
		"GET /archive",
		"GET /archive/{key...}",
	} {
		if !slices.Contains(patterns, want) {
			t.Errorf("pattern %q not registered in %v", want, patterns)
		}
	}
	seen := map[string]bool{}
	for _, p := range patterns {
		if seen[p] {
			t.Errorf("pattern %q registered twice", p)
		}
		seen[p] = true
	}
}

func TestNewModuleRejectsBasePath(t *testing.T) {
	cfg := validConfig(t)
	cfg.API.BasePath = "/api/v1"

	if _, err := api.NewModule(cfg, setupInfra(t, cfg)); !errors.Is(err, module.ErrInvalidPrefix) {
		t.Errorf("got %v, want ErrInvalidPrefix", err)
	}
}
