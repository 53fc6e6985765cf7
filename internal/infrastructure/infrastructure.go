// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, archive storage, batch
// folders) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/dcma/internal/config"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/internal/store"
	"github.com/JaimeStill/dcma/pkg/database"
	"github.com/JaimeStill/dcma/pkg/lifecycle"
	"github.com/JaimeStill/dcma/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, checkpoint archiving, and batch persistence.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Paths     *paths.Resolver
	Store     store.System

	closeLog func() error
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger, closeLog := cfg.Logging.NewLogger()

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	archive, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	resolver, err := paths.New(cfg.Folders)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("folders init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   archive,
		Paths:     resolver,
		Store:     store.New(resolver, archive, logger),
		closeLog:  closeLog,
	}, nil
}

// Start prepares the batch folder root and registers the infrastructure
// systems with the lifecycle coordinator. The log file is registered first so
// it closes after everything that logs during shutdown.
func (i *Infrastructure) Start() error {
	if err := os.MkdirAll(i.Paths.Config().LocalFolder, 0o755); err != nil {
		return fmt.Errorf("batch folder init failed: %w", err)
	}
	i.Lifecycle.OnShutdown(func(context.Context) error {
		return i.closeLog()
	})
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
