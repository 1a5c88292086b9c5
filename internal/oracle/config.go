package oracle

import (
	"fmt"
	"os"
	"strconv"
)

// Providers supported by New. Gemini uses the Gen AI SDK; Ollama and Azure
// go through go-agents.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderAzure  = "azure"
)

var defaultModels = map[string]string{
	ProviderGemini: "gemini-2.5-flash",
	ProviderOllama: "llama3.1:8b",
}

// Config holds language-model connection and pacing parameters.
type Config struct {
	Provider string  `toml:"provider"`
	Model    string  `toml:"model"`
	APIKey   string  `toml:"api_key"`
	BaseURL  string  `toml:"base_url"`
	Search   bool    `toml:"search"`
	Rate     float64 `toml:"rate"`
	Burst    int     `toml:"burst"`

	// Azure OpenAI deployment settings.
	Deployment string `toml:"deployment"`
	APIVersion string `toml:"api_version"`
	AuthType   string `toml:"auth_type"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Search     string
	Rate       string
	Burst      string
	Deployment string
	APIVersion string
	AuthType   string
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Search {
		c.Search = true
	}
	if overlay.Rate != 0 {
		c.Rate = overlay.Rate
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	for dst, src := range map[*string]string{
		&c.Deployment: overlay.Deployment,
		&c.APIVersion: overlay.APIVersion,
		&c.AuthType:   overlay.AuthType,
	} {
		if src != "" {
			*dst = src
		}
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}
	if c.Provider == ProviderOllama && c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Rate == 0 {
		c.Rate = 2
	}
	if c.Burst == 0 {
		c.Burst = 4
	}
}

func (c *Config) loadEnv(env *Env) error {
	strs := map[string]*string{
		env.Provider:   &c.Provider,
		env.Model:      &c.Model,
		env.APIKey:     &c.APIKey,
		env.BaseURL:    &c.BaseURL,
		env.Deployment: &c.Deployment,
		env.APIVersion: &c.APIVersion,
		env.AuthType:   &c.AuthType,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	if v := getenv(env.Search); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env.Search, err)
		}
		c.Search = b
	}
	if v := getenv(env.Rate); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env.Rate, err)
		}
		c.Rate = f
	}
	if v := getenv(env.Burst); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env.Burst, err)
		}
		c.Burst = n
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOllama:
	case ProviderAzure:
		if c.BaseURL == "" || c.Deployment == "" {
			return fmt.Errorf("azure provider requires base_url and deployment")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be positive")
	}
	return nil
}
