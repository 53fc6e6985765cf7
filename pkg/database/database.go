// Package database opens the PostgreSQL pool backing manual step history and
// ties its ping and close to the service lifecycle.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/dcma/pkg/lifecycle"
)

// ErrNotReady is returned by Ping when the server cannot be reached.
var ErrNotReady = errors.New("database not ready")

// System owns the connection pool.
type System interface {
	Connection() *sql.DB
	// Ping checks the server within the configured connection timeout.
	Ping(ctx context.Context) error
	// Start pings the server during startup and closes the pool on shutdown.
	Start(lc *lifecycle.Coordinator) error
}

type pool struct {
	db      *sql.DB
	logger  *slog.Logger
	timeout time.Duration
}

// New opens a lazily connecting pool sized by cfg. No connection is made
// until the first query or Ping.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &pool{
		db:      db,
		logger:  logger.With("system", "database", "host", cfg.Host, "name", cfg.Name),
		timeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (p *pool) Connection() *sql.DB {
	return p.db
}

func (p *pool) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

func (p *pool) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			p.logger.Error("database unreachable at startup", "error", err)
			return err
		}
		p.logger.Info("database connected")
		return nil
	})

	lc.OnShutdown(func(context.Context) error {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		p.logger.Info("database closed")
		return nil
	})
	return nil
}
