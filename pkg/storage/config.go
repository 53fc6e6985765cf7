package storage

import (
	"fmt"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

const (
	ProviderLocal = "local"
	ProviderAzure = "azure"
)

// Config selects the archive provider. Root applies to the local provider;
// ContainerName and ConnectionString to Azure.
type Config struct {
	Provider         string `toml:"provider"`
	Root             string `toml:"root"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env names the variables that override Config fields.
type Env struct {
	Provider         string
	Root             string
	ContainerName    string
	ConnectionString string
}

func (c *Config) fields() []*string {
	return []*string{&c.Provider, &c.Root, &c.ContainerName, &c.ConnectionString}
}

// Finalize fills defaults, applies env and checks that the selected provider
// has what it needs.
func (c *Config) Finalize(env *Env) error {
	for dst, def := range map[*string]string{
		&c.Provider:      ProviderLocal,
		&c.Root:          "data/archive",
		&c.ContainerName: "batches",
	} {
		if *dst == "" {
			*dst = def
		}
	}
	if env != nil {
		names := []string{env.Provider, env.Root, env.ContainerName, env.ConnectionString}
		for i, dst := range c.fields() {
			envvar.String(dst, names[i])
		}
	}

	switch c.Provider {
	case ProviderLocal:
		return nil
	case ProviderAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("storage: connection_string required for provider %q", c.Provider)
		}
		return nil
	}
	return fmt.Errorf("storage: unknown provider %q", c.Provider)
}

// Merge takes every non-empty field of o.
func (c *Config) Merge(o *Config) {
	src := o.fields()
	for i, dst := range c.fields() {
		if *src[i] != "" {
			*dst = *src[i]
		}
	}
}
