package api

import (
	"github.com/JaimeStill/dcma/internal/config"
	"github.com/JaimeStill/dcma/internal/hocr"
	"github.com/JaimeStill/dcma/internal/imaging"
	"github.com/JaimeStill/dcma/internal/infrastructure"
	"github.com/JaimeStill/dcma/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Imaging    imaging.Config
	HOCR       hocr.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Imaging:        cfg.Imaging,
		HOCR:           cfg.HOCR,
	}
}
