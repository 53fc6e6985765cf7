package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/dcma/internal/hocr"
	"github.com/JaimeStill/dcma/internal/imaging"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/pkg/database"
	"github.com/JaimeStill/dcma/pkg/envvar"
	"github.com/JaimeStill/dcma/pkg/fileops"
	"github.com/JaimeStill/dcma/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDcmaEnv             = "DCMA_ENV"
	EnvDcmaConfig          = "DCMA_CONFIG"
	EnvDcmaShutdownTimeout = "DCMA_SHUTDOWN_TIMEOUT"
	EnvDcmaVersion         = "DCMA_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "DCMA_DB_HOST",
	Port:            "DCMA_DB_PORT",
	Name:            "DCMA_DB_NAME",
	User:            "DCMA_DB_USER",
	Password:        "DCMA_DB_PASSWORD",
	SSLMode:         "DCMA_DB_SSL_MODE",
	MaxOpenConns:    "DCMA_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DCMA_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DCMA_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DCMA_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "DCMA_STORAGE_PROVIDER",
	Root:             "DCMA_STORAGE_ROOT",
	ContainerName:    "DCMA_STORAGE_CONTAINER_NAME",
	ConnectionString: "DCMA_STORAGE_CONNECTION_STRING",
}

var foldersEnv = &paths.Env{
	LocalFolder:      "DCMA_LOCAL_FOLDER",
	BaseFolder:       "DCMA_BASE_FOLDER",
	ExportFolder:     "DCMA_EXPORT_FOLDER",
	BaseHTTPURL:      "DCMA_BASE_HTTP_URL",
	WebScannerFolder: "DCMA_WEB_SCANNER_FOLDER",
	WebScannerURL:    "DCMA_WEB_SCANNER_URL",
	EmailFolder:      "DCMA_EMAIL_FOLDER",
	WebServices:      "DCMA_WEB_SERVICES_FOLDER",
	ZipSwitch:        "DCMA_ZIP_SWITCH",
}

var imagingEnv = &imaging.Env{
	ThumbnailWidth: "DCMA_IMAGING_THUMBNAIL_WIDTH",
	DisplayWidth:   "DCMA_IMAGING_DISPLAY_WIDTH",
}

var hocrEnv = &hocr.Env{
	Engine:      "DCMA_HOCR_ENGINE",
	Languages:   "DCMA_HOCR_LANGUAGES",
	Concurrency: "DCMA_HOCR_CONCURRENCY",
}

// Config is the root configuration for the DCMA batch service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Logging         LoggingConfig   `toml:"logging"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Folders         paths.Config    `toml:"folders"`
	Imaging         imaging.Config  `toml:"imaging"`
	HOCR            hocr.Config     `toml:"hocr"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the DCMA_ENV value, defaulting to "local".
func (c *Config) Env() string {
	env := "local"
	envvar.String(&env, EnvDcmaEnv)
	return env
}

// ShutdownTimeoutDuration bounds the whole process shutdown, including the
// HTTP server drain governed by Server.ShutdownTimeout.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Load reads the base config, when present, merges the overlay selected by
// DCMA_ENV and finalizes every section. DCMA_CONFIG replaces the base path.
func Load() (*Config, error) {
	path := BaseConfigFile
	envvar.String(&path, EnvDcmaConfig)
	return LoadFile(path)
}

// LoadFile is Load with an explicit base config path. A missing base file is
// not an error; defaults and environment variables then supply everything.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	found, err := fileops.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if found {
		base, err := readFile(path)
		if err != nil {
			return nil, err
		}
		cfg = base
	}

	if env, ok := os.LookupEnv(EnvDcmaEnv); ok && env != "" {
		name := fmt.Sprintf(OverlayConfigPattern, env)
		if found, _ := fileops.Exists(name); found {
			o, err := readFile(name)
			if err != nil {
				return nil, fmt.Errorf("load overlay %s: %w", name, err)
			}
			cfg.Merge(o)
		}
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites the fields overlay sets, section by section.
func (c *Config) Merge(o *Config) {
	overlay(&c.ShutdownTimeout, o.ShutdownTimeout)
	overlay(&c.Version, o.Version)
	c.Server.Merge(&o.Server)
	c.Logging.Merge(&o.Logging)
	c.Database.Merge(&o.Database)
	c.Storage.Merge(&o.Storage)
	c.Folders.Merge(&o.Folders)
	c.Imaging.Merge(&o.Imaging)
	c.HOCR.Merge(&o.HOCR)
	c.API.Merge(&o.API)
}

type section struct {
	name     string
	finalize func() error
}

func (c *Config) finalize() error {
	fallback(&c.ShutdownTimeout, "30s")
	fallback(&c.Version, "0.1.0")
	fallback(&c.Database.Name, "dcma")
	fallback(&c.Database.User, "dcma")
	envvar.String(&c.ShutdownTimeout, EnvDcmaShutdownTimeout)
	envvar.String(&c.Version, EnvDcmaVersion)

	if err := checkDurations(duration{"shutdown_timeout", c.ShutdownTimeout}); err != nil {
		return err
	}

	sections := []section{
		{"server", c.Server.Finalize},
		{"logging", c.Logging.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"folders", func() error { return c.Folders.Finalize(foldersEnv) }},
		{"imaging", func() error { return c.Imaging.Finalize(imagingEnv) }},
		{"hocr", func() error { return c.HOCR.Finalize(hocrEnv) }},
		{"api", c.API.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
