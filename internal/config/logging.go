package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

const (
	EnvLogLevel = "DCMA_LOG_LEVEL"
	EnvLogFile  = "DCMA_LOG_FILE"
)

// LoggingConfig selects the log level and an optional JSON log file.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Finalize defaults the level to info, applies DCMA_LOG_* variables and
// rejects levels slog does not know.
func (c *LoggingConfig) Finalize() error {
	fallback(&c.Level, "info")
	envvar.String(&c.Level, EnvLogLevel)
	envvar.String(&c.File, EnvLogFile)

	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level %q", c.Level)
	}
	return nil
}

func (c *LoggingConfig) Merge(o *LoggingConfig) {
	overlay(&c.Level, o.Level)
	overlay(&c.File, o.File)
}

// SlogLevel returns Level as a slog.Level, or info when it does not parse.
func (c *LoggingConfig) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds a text logger on stderr. When File is set, records are
// also written to it as JSON. The returned function closes the file.
func (c *LoggingConfig) NewLogger() (*slog.Logger, func() error) {
	level := c.SlogLevel()
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if c.File == "" {
		return slog.New(stderrHandler), func() error { return nil }
	}

	file, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(stderrHandler)
		logger.Error("failed to open log file, using stderr only", "error", err, "file", c.File)
		return logger, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler)), file.Close
}

// NewLoggerWithWriters is NewLogger over arbitrary writers.
func NewLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
