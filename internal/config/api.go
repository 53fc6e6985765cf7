package config

import (
	"fmt"

	"github.com/JaimeStill/dcma/pkg/envvar"
	"github.com/JaimeStill/dcma/pkg/formatting"
	"github.com/JaimeStill/dcma/pkg/middleware"
	"github.com/JaimeStill/dcma/pkg/pagination"
)

const (
	EnvAPIBasePath      = "DCMA_API_BASE_PATH"
	EnvAPIMaxUploadSize = "DCMA_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = "50MB"
)

// APIConfig covers the HTTP surface: where routes mount, how large an
// uploaded PDF may be, CORS and list paging.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes is MaxUploadSize in bytes. An unparsable size yields the
// 50MB default; Finalize rejects such sizes, so only unfinalized configs see it.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	n, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		n, _ = formatting.ParseBytes(defaultMaxUploadSize)
	}
	return n
}

func (c *APIConfig) Finalize() error {
	fallback(&c.BasePath, "/api")
	fallback(&c.MaxUploadSize, defaultMaxUploadSize)
	envvar.String(&c.BasePath, EnvAPIBasePath)
	envvar.String(&c.MaxUploadSize, EnvAPIMaxUploadSize)

	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(&middleware.CORSEnv{
		Enabled:          "DCMA_CORS_ENABLED",
		Origins:          "DCMA_CORS_ORIGINS",
		AllowedMethods:   "DCMA_CORS_ALLOWED_METHODS",
		AllowedHeaders:   "DCMA_CORS_ALLOWED_HEADERS",
		AllowCredentials: "DCMA_CORS_ALLOW_CREDENTIALS",
		MaxAge:           "DCMA_CORS_MAX_AGE",
	}); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(&pagination.ConfigEnv{
		DefaultPageSize: "DCMA_PAGINATION_DEFAULT_PAGE_SIZE",
		MaxPageSize:     "DCMA_PAGINATION_MAX_PAGE_SIZE",
	}); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

func (c *APIConfig) Merge(o *APIConfig) {
	overlay(&c.BasePath, o.BasePath)
	overlay(&c.MaxUploadSize, o.MaxUploadSize)
	c.CORS.Merge(&o.CORS)
	c.Pagination.Merge(&o.Pagination)
}
