// Package config loads assay configuration from TOML files, a .env file, and
// ASSAY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/assay/internal/oracle"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/cache"
	"github.com/JaimeStill/assay/pkg/database"
	"github.com/JaimeStill/assay/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvAssayEnv     = "ASSAY_ENV"
	EnvAssayVersion = "ASSAY_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "ASSAY_DB_URL",
	Host:            "ASSAY_DB_HOST",
	Port:            "ASSAY_DB_PORT",
	Name:            "ASSAY_DB_NAME",
	User:            "ASSAY_DB_USER",
	Password:        "ASSAY_DB_PASSWORD",
	SSLMode:         "ASSAY_DB_SSL_MODE",
	MaxOpenConns:    "ASSAY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ASSAY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ASSAY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ASSAY_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ASSAY_STORAGE_CONTAINER_NAME",
	ConnectionString: "ASSAY_STORAGE_CONNECTION_STRING",
}

var oracleEnv = &oracle.Env{
	Provider: "ASSAY_ORACLE_PROVIDER",
	Model:    "ASSAY_ORACLE_MODEL",
	APIKey:   "ASSAY_ORACLE_API_KEY",
	BaseURL:  "ASSAY_ORACLE_BASE_URL",
	Search:   "ASSAY_ORACLE_SEARCH",
	Rate:     "ASSAY_ORACLE_RATE",
	Burst:    "ASSAY_ORACLE_BURST",

	Deployment: "ASSAY_ORACLE_DEPLOYMENT",
	APIVersion: "ASSAY_ORACLE_API_VERSION",
	AuthType:   "ASSAY_ORACLE_AUTH_TYPE",
}

var workflowEnv = &workflow.Env{
	MaxAttempts: "ASSAY_WORKFLOW_MAX_ATTEMPTS",
	Concurrency: "ASSAY_WORKFLOW_CONCURRENCY",
	CallTimeout: "ASSAY_WORKFLOW_CALL_TIMEOUT",
}

var cacheEnv = &cache.Env{
	URL:      "ASSAY_CACHE_URL",
	Password: "ASSAY_CACHE_PASSWORD",
	Prefix:   "ASSAY_CACHE_PREFIX",
	TTL:      "ASSAY_CACHE_TTL",
}

// Config is the root configuration shared by the server and CLI.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Database database.Config `toml:"database"`
	Storage  storage.Config  `toml:"storage"`
	API      APIConfig       `toml:"api"`
	Oracle   oracle.Config   `toml:"oracle"`
	Workflow workflow.Config `toml:"workflow"`
	Taxonomy TaxonomyConfig  `toml:"taxonomy"`
	Cache    cache.Config    `toml:"cache"`
	Version  string          `toml:"version"`
}

// Env returns the ASSAY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAssayEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads the base config at path (BaseConfigFile when empty), applies the
// config.<env>.toml overlay beside it, and finalizes all values. A .env file
// in the working directory is loaded first without overriding variables
// already set. A missing base file is not an error when path is empty:
// defaults and environment variables then provide all configuration.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = BaseConfigFile
	}

	cfg := &Config{}

	loaded, err := load(path)
	switch {
	case err == nil:
		cfg = loaded
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Oracle.Merge(&overlay.Oracle)
	c.Workflow.Merge(&overlay.Workflow)
	c.Taxonomy.Merge(&overlay.Taxonomy)
	c.Cache.Merge(&overlay.Cache)
}

// Finalize applies defaults, environment overrides, and validation to every
// section.
func (c *Config) Finalize() error {
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if v := os.Getenv(EnvAssayVersion); v != "" {
		c.Version = v
	}

	if err := c.Server.Finalize(serverEnv); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Oracle.Finalize(oracleEnv); err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	if err := c.Workflow.Finalize(workflowEnv); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Taxonomy.Finalize(); err != nil {
		return fmt.Errorf("taxonomy: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func overlayPath(dir string) string {
	env := os.Getenv(EnvAssayEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
