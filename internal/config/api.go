package config

import (
	"fmt"

	"github.com/JaimeStill/assay/pkg/formatting"
	"github.com/JaimeStill/assay/pkg/middleware"
	"github.com/JaimeStill/assay/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ASSAY_CORS_ENABLED",
	Origins:          "ASSAY_CORS_ORIGINS",
	AllowedMethods:   "ASSAY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ASSAY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ASSAY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ASSAY_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ASSAY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ASSAY_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath     string                `toml:"base_path"`
	MaxBodySize  string                `toml:"max_body_size"`
	MaxBatchSize int                   `toml:"max_batch_size"`
	CORS         middleware.CORSConfig `toml:"cors"`
	Pagination   pagination.Config     `toml:"pagination"`
}

// MaxBodySizeBytes returns MaxBodySize in bytes.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxBodySize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	mergeString(&c.BasePath, overlay.BasePath)
	mergeString(&c.MaxBodySize, overlay.MaxBodySize)
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 100
	}
}

func (c *APIConfig) loadEnv() error {
	envString(&c.BasePath, "ASSAY_API_BASE_PATH")
	envString(&c.MaxBodySize, "ASSAY_API_MAX_BODY_SIZE")
	return envInt(&c.MaxBatchSize, "ASSAY_API_MAX_BATCH_SIZE")
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_body_size must be positive")
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
