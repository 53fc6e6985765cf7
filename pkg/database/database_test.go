package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/dcma/pkg/database"
)

func unreachable(t *testing.T) database.System {
	t.Helper()
	cfg := database.Config{Host: "127.0.0.1", Port: 1, Name: "dcma", User: "dcma", MaxOpenConns: 3, MaxIdleConns: 1}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	cfg.ConnTimeout = "200ms"

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { sys.Connection().Close() })
	return sys
}

func TestNewAppliesPoolLimits(t *testing.T) {
	sys := unreachable(t)
	if got := sys.Connection().Stats().MaxOpenConnections; got != 3 {
		t.Errorf("max open: got %d, want 3", got)
	}
}

func TestPingUnreachable(t *testing.T) {
	sys := unreachable(t)
	if err := sys.Ping(context.Background()); !errors.Is(err, database.ErrNotReady) {
		t.Errorf("got %v, want ErrNotReady", err)
	}
}
