package config

import (
	"fmt"
	"time"
)

// fallback sets *dst to def when it is empty.
func fallback(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func overlay(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// duration is a named Go duration setting.
type duration struct {
	name  string
	value string
}

func checkDurations(ds ...duration) error {
	for _, d := range ds {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}
	return nil
}

// mustDuration parses a value already accepted by checkDurations.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
