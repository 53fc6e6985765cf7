// Package pagination reads page requests from clients and shapes paged
// results.
package pagination

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

// Config bounds the page sizes a client may ask for.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv names the variables that override Config fields.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize fills unset sizes with 20 and 100, applies env, and checks that the
// default fits under the maximum.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if env != nil {
		if err := errors.Join(
			envvar.Int(&c.DefaultPageSize, env.DefaultPageSize),
			envvar.Int(&c.MaxPageSize, env.MaxPageSize),
		); err != nil {
			return err
		}
	}

	switch {
	case c.DefaultPageSize < 1 || c.MaxPageSize < 1:
		return fmt.Errorf("page sizes must be positive: default %d, max %d", c.DefaultPageSize, c.MaxPageSize)
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("default_page_size %d exceeds max_page_size %d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// Merge takes each positive size from o.
func (c *Config) Merge(o *Config) {
	if o.DefaultPageSize > 0 {
		c.DefaultPageSize = o.DefaultPageSize
	}
	if o.MaxPageSize > 0 {
		c.MaxPageSize = o.MaxPageSize
	}
}
