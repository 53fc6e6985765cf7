package imaging

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

// Config holds the target widths of derived page images.
type Config struct {
	ThumbnailWidth int `toml:"thumbnail_width"`
	DisplayWidth   int `toml:"display_width"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ThumbnailWidth string
	DisplayWidth   string
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
	if overlay.ThumbnailWidth != 0 {
		c.ThumbnailWidth = overlay.ThumbnailWidth
	}
	if overlay.DisplayWidth != 0 {
		c.DisplayWidth = overlay.DisplayWidth
	}
}

func (c *Config) loadDefaults() {
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = 160
	}
	if c.DisplayWidth == 0 {
		c.DisplayWidth = 1024
	}
}

func (c *Config) loadEnv(env *Env) error {
	return errors.Join(
		envvar.Int(&c.ThumbnailWidth, env.ThumbnailWidth),
		envvar.Int(&c.DisplayWidth, env.DisplayWidth),
	)
}

func (c *Config) validate() error {
	if c.ThumbnailWidth < 1 {
		return fmt.Errorf("invalid thumbnail_width: %d", c.ThumbnailWidth)
	}
	if c.DisplayWidth < c.ThumbnailWidth {
		return fmt.Errorf("display_width %d smaller than thumbnail_width %d", c.DisplayWidth, c.ThumbnailWidth)
	}
	return nil
}
