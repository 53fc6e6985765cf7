// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/dcma/internal/config"
	"github.com/JaimeStill/dcma/internal/infrastructure"
	"github.com/JaimeStill/dcma/pkg/middleware"
	"github.com/JaimeStill/dcma/pkg/module"
	"github.com/JaimeStill/dcma/pkg/routes"
)

// NewModule creates the API module with all domain handlers and middleware.
// Requests pass through request id assignment, access logging and CORS, in
// that order.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	groups := Groups(cfg, NewDomain(runtime), runtime)

	mux := http.NewServeMux()
	routes.Register(mux, groups...)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(
		middleware.RequestID(),
		middleware.Logger(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
	)

	runtime.Logger.Info("api module assembled",
		"base_path", cfg.API.BasePath,
		"routes", len(routes.Patterns(groups...)),
	)
	return m, nil
}

// Groups lists the route groups served by the API module.
func Groups(cfg *config.Config, domain *Domain, runtime *Runtime) []routes.Group {
	return []routes.Group{
		domain.Documents.Handler().Routes(),
		domain.HOCR.Handler().Routes(),
		domain.Ingest.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.History.Handler().Routes(),
		newArchiveHandler(runtime.Storage, runtime.Logger).routes(),
	}
}
