package cache

import (
	"fmt"
	"os"
	"time"
)

// Config holds Redis connection and expiry parameters. An empty URL disables
// the cache.
type Config struct {
	URL      string `toml:"url"`
	Password string `toml:"password"`
	Prefix   string `toml:"prefix"`
	TTL      string `toml:"ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL      string
	Password string
	Prefix   string
	TTL      string
}

// Enabled reports whether a Redis URL is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// TTLDuration returns TTL as a time.Duration.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
}

func (c *Config) loadDefaults() {
	if c.Prefix == "" {
		c.Prefix = "assay:"
	}
	if c.TTL == "" {
		c.TTL = "168h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.Prefix != "" {
		if v := os.Getenv(env.Prefix); v != "" {
			c.Prefix = v
		}
	}
	if env.TTL != "" {
		if v := os.Getenv(env.TTL); v != "" {
			c.TTL = v
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("ttl must not be negative")
	}
	return nil
}
