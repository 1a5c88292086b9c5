package workflow

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds workflow tuning parameters.
type Config struct {
	MaxAttempts int    `toml:"max_attempts"`
	Concurrency int    `toml:"concurrency"`
	CallTimeout string `toml:"call_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxAttempts string
	Concurrency string
	CallTimeout string
}

// CallTimeoutDuration returns CallTimeout as a time.Duration.
func (c *Config) CallTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CallTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.CallTimeout != "" {
		c.CallTimeout = overlay.CallTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.CallTimeout == "" {
		c.CallTimeout = "60s"
	}
}

func (c *Config) loadEnv(env *Env) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{env.MaxAttempts, &c.MaxAttempts},
		{env.Concurrency, &c.Concurrency},
	}
	for _, e := range ints {
		if e.name == "" {
			continue
		}
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", e.name, err)
		}
		*e.dst = n
	}

	if env.CallTimeout != "" {
		if v := os.Getenv(env.CallTimeout); v != "" {
			c.CallTimeout = v
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive")
	}
	d, err := time.ParseDuration(c.CallTimeout)
	if err != nil {
		return fmt.Errorf("invalid call_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	return nil
}
