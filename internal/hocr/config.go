package hocr

import (
	"fmt"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

// Config controls OCR generation.
type Config struct {
	Engine      string   `toml:"engine"`
	Languages   []string `toml:"languages"`
	Concurrency int      `toml:"concurrency"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Engine      string
	Languages   string
	Concurrency string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Engine != "" {
		c.Engine = overlay.Engine
	}
	if len(overlay.Languages) > 0 {
		c.Languages = overlay.Languages
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *Config) loadDefaults() {
	if c.Engine == "" {
		c.Engine = "tesseract"
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}

func (c *Config) loadEnv(env *Env) error {
	envvar.String(&c.Engine, env.Engine)
	envvar.List(&c.Languages, env.Languages)
	return envvar.Int(&c.Concurrency, env.Concurrency)
}

func (c *Config) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid hocr concurrency: %d", c.Concurrency)
	}
	return nil
}
