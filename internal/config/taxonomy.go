package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/assay/pkg/taxonomy"
)

const (
	EnvTaxonomySource = "ASSAY_TAXONOMY_SOURCE"
	EnvTaxonomySheet  = "ASSAY_TAXONOMY_SHEET"
)

// TaxonomyConfig locates the taxonomy source. Source is a local .csv/.xlsx
// path or a blob:// key in the configured storage container. Sheet selects
// an xlsx worksheet; empty means the active sheet.
type TaxonomyConfig struct {
	Source string `toml:"source"`
	Sheet  string `toml:"sheet"`
}

// Remote reports whether Source names a blob.
func (c *TaxonomyConfig) Remote() bool {
	return strings.HasPrefix(c.Source, taxonomy.BlobScheme)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TaxonomyConfig) Finalize() error {
	if c.Source == "" {
		c.Source = "taxonomy.csv"
	}
	if v := os.Getenv(EnvTaxonomySource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvTaxonomySheet); v != "" {
		c.Sheet = v
	}

	if _, err := taxonomy.FormatOf(strings.TrimPrefix(c.Source, taxonomy.BlobScheme)); err != nil {
		return fmt.Errorf("source %q: %w", c.Source, err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *TaxonomyConfig) Merge(overlay *TaxonomyConfig) {
	if overlay.Source != "" {
		c.Source = overlay.Source
	}
	if overlay.Sheet != "" {
		c.Sheet = overlay.Sheet
	}
}
