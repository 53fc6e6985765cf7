// Package lifecycle sequences service startup and shutdown. Startup hooks run
// concurrently as soon as they are registered; shutdown hooks run one at a
// time in reverse registration order, so a system registered after its
// dependencies stops before them.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Hook is a startup or shutdown step. Startup hooks receive the service
// context; shutdown hooks receive a context bounded by the shutdown timeout.
type Hook func(ctx context.Context) error

// Coordinator owns the service context and the registered hooks.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	starting sync.WaitGroup
	mu       sync.Mutex
	failures []error
	stops    []Hook
	ready    atomic.Bool
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine. An error keeps the coordinator
// from becoming ready.
func (c *Coordinator) OnStartup(fn Hook) {
	c.starting.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures = append(c.failures, err)
			c.mu.Unlock()
		}
	})
}

// OnShutdown queues fn for Shutdown.
func (c *Coordinator) OnShutdown(fn Hook) {
	c.mu.Lock()
	c.stops = append(c.stops, fn)
	c.mu.Unlock()
}

// Ready reports whether every startup hook has finished without error.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks until the startup hooks finish and returns their
// joined errors. The coordinator becomes ready only when there are none.
func (c *Coordinator) WaitForStartup() error {
	c.starting.Wait()

	c.mu.Lock()
	err := errors.Join(c.failures...)
	c.mu.Unlock()

	c.ready.Store(err == nil)
	return err
}

// Shutdown cancels Context and runs the shutdown hooks newest first. Hook
// errors are joined into the result. Hooks still running when timeout
// elapses are abandoned and a timeout error is returned.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.ready.Store(false)
	c.cancel()

	c.mu.Lock()
	stops := slices.Clone(c.stops)
	c.stops = nil
	c.mu.Unlock()
	slices.Reverse(stops)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for _, stop := range stops {
			errs = append(errs, stop(ctx))
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
