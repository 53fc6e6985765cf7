package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/dcma/internal/config"

	_ "github.com/JaimeStill/dcma/internal/hocr/tesseract"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dcma-server:", err)
		os.Exit(1)
	}
}

// run serves until a signal arrives or a subsystem fails, then shuts down.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	timeout := cfg.ShutdownTimeoutDuration()

	if err := srv.Start(); err != nil {
		return errors.Join(fmt.Errorf("start server: %w", err), srv.Shutdown(timeout))
	}

	var failure error
	select {
	case <-ctx.Done():
	case failure = <-srv.Failed():
	}
	return errors.Join(failure, srv.Shutdown(timeout))
}
