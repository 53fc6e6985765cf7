package hocr

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Engine recognizes the text of a page image and returns hOCR markup.
type Engine interface {
	Name() string
	HOCR(ctx context.Context, imagePath string, languages []string) ([]byte, error)
}

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine)
)

// Register makes an engine available by name. Registering the same name twice
// replaces the earlier engine.
func Register(e Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[e.Name()] = e
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()

	e, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownEngine, name, registered())
	}
	return e, nil
}

func registered() []string {
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
