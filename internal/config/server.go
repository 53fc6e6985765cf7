package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

const (
	EnvServerHost            = "DCMA_SERVER_HOST"
	EnvServerPort            = "DCMA_SERVER_PORT"
	EnvServerReadTimeout     = "DCMA_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "DCMA_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout = "DCMA_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds the HTTP listener settings. The write timeout covers a
// whole upload including OCR, so it defaults far above the read timeout.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize fills defaults, applies DCMA_SERVER_* variables and validates.
func (c *ServerConfig) Finalize() error {
	fallback(&c.Host, "0.0.0.0")
	if c.Port == 0 {
		c.Port = 8080
	}
	fallback(&c.ReadTimeout, "1m")
	fallback(&c.WriteTimeout, "15m")
	fallback(&c.ShutdownTimeout, "30s")

	envvar.String(&c.Host, EnvServerHost)
	if err := envvar.Int(&c.Port, EnvServerPort); err != nil {
		return err
	}
	envvar.String(&c.ReadTimeout, EnvServerReadTimeout)
	envvar.String(&c.WriteTimeout, EnvServerWriteTimeout)
	envvar.String(&c.ShutdownTimeout, EnvServerShutdownTimeout)

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return checkDurations(
		duration{"read_timeout", c.ReadTimeout},
		duration{"write_timeout", c.WriteTimeout},
		duration{"shutdown_timeout", c.ShutdownTimeout},
	)
}

func (c *ServerConfig) Merge(o *ServerConfig) {
	overlay(&c.Host, o.Host)
	if o.Port != 0 {
		c.Port = o.Port
	}
	overlay(&c.ReadTimeout, o.ReadTimeout)
	overlay(&c.WriteTimeout, o.WriteTimeout)
	overlay(&c.ShutdownTimeout, o.ShutdownTimeout)
}
