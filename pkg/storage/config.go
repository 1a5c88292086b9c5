package storage

import (
	"cmp"
	"fmt"
	"os"
	"strings"
)

// Config holds Azure Blob Storage connection parameters. Storage is optional:
// with no connection string the system is disabled and blob:// sources are
// rejected.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
}

// Enabled reports whether a connection string is configured.
func (c *Config) Enabled() bool {
	return c.ConnectionString != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = "taxonomies"
	}
	if env != nil {
		override(&c.ContainerName, env.ContainerName)
		override(&c.ConnectionString, env.ConnectionString)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.ContainerName = cmp.Or(overlay.ContainerName, c.ContainerName)
	c.ConnectionString = cmp.Or(overlay.ConnectionString, c.ConnectionString)
}

func override(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// validate enforces the Azure container naming rules: 3 to 63 characters of
// lowercase letters, digits, and single interior hyphens.
func (c *Config) validate() error {
	if !c.Enabled() {
		return nil
	}
	name := c.ContainerName
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("container_name %q must be 3-63 characters", name)
	}
	if name[0] == '-' || name[len(name)-1] == '-' || strings.Contains(name, "--") {
		return fmt.Errorf("container_name %q has a misplaced hyphen", name)
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return fmt.Errorf("container_name %q contains %q", name, r)
		}
	}
	return nil
}
