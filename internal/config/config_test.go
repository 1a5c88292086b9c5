package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/assay/internal/config"
)

const baseConfig = `
version = "1.2.0"

[server]
port = 8181

[database]
host = "db.internal"
name = "assay"
user = "assay"

[api.pagination]
default_page_size = 25
max_page_size = 50

[oracle]
model = "gemini-2.5-pro"
rate = 5.0

[workflow]
max_attempts = 4
concurrency = 8

[taxonomy]
source = "blob://taxonomy/materials.xlsx"
sheet = "Grades"

[cache]
url = "redis://localhost:6379/0"
ttl = "24h"
`

const overlayConfig = `
[server]
port = 9090

[workflow]
call_timeout = "30s"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"version", cfg.Version, "0.1.0"},
		{"env", cfg.Env(), "local"},
		{"server addr", cfg.Server.Addr(), "0.0.0.0:8080"},
		{"api base path", cfg.API.BasePath, "/api"},
		{"api body size", cfg.API.MaxBodySizeBytes(), int64(1024 * 1024)},
		{"oracle provider", cfg.Oracle.Provider, "gemini"},
		{"workflow attempts", cfg.Workflow.MaxAttempts, 3},
		{"workflow timeout", cfg.Workflow.CallTimeoutDuration(), 60 * time.Second},
		{"taxonomy source", cfg.Taxonomy.Source, "taxonomy.csv"},
		{"taxonomy remote", cfg.Taxonomy.Remote(), false},
		{"storage enabled", cfg.Storage.Enabled(), false},
		{"cache enabled", cfg.Cache.Enabled(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadFileWithOverlayAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "assay.toml", baseConfig)
	writeFile(t, dir, "config.prod.toml", overlayConfig)

	t.Chdir(t.TempDir())
	t.Setenv(config.EnvAssayEnv, "prod")
	t.Setenv("ASSAY_ORACLE_API_KEY", "secret")
	t.Setenv("ASSAY_WORKFLOW_CONCURRENCY", "2")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"version from file", cfg.Version, "1.2.0"},
		{"overlay port", cfg.Server.Port, 9090},
		{"file db host", cfg.Database.Host, "db.internal"},
		{"file page size", cfg.API.Pagination.DefaultPageSize, 25},
		{"file model", cfg.Oracle.Model, "gemini-2.5-pro"},
		{"file rate", cfg.Oracle.Rate, 5.0},
		{"env api key", cfg.Oracle.APIKey, "secret"},
		{"file attempts", cfg.Workflow.MaxAttempts, 4},
		{"env concurrency", cfg.Workflow.Concurrency, 2},
		{"overlay timeout", cfg.Workflow.CallTimeoutDuration(), 30 * time.Second},
		{"taxonomy remote", cfg.Taxonomy.Remote(), true},
		{"taxonomy sheet", cfg.Taxonomy.Sheet, "Grades"},
		{"cache enabled", cfg.Cache.Enabled(), true},
		{"cache ttl", cfg.Cache.TTLDuration(), 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.DotEnvFile, "ASSAY_ORACLE_MODEL=gemini-from-dotenv\n")
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("ASSAY_ORACLE_MODEL") })

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Oracle.Model != "gemini-from-dotenv" {
		t.Errorf("model = %q, want value from .env", cfg.Oracle.Model)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid toml", "[server\nport = "},
		{"bad port", "[server]\nport = 70000"},
		{"bad call timeout", "[workflow]\ncall_timeout = \"eventually\""},
		{"bad body size", "[api]\nmax_body_size = \"lots\""},
		{"unsupported taxonomy", "[taxonomy]\nsource = \"materials.json\""},
		{"negative cache ttl", "[cache]\nttl = \"-1h\""},
		{"zero shutdown timeout", "[server]\nshutdown_timeout = \"0s\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			path := writeFile(t, dir, "config.toml", tt.content)

			if _, err := config.Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	malformedEnv := []struct{ name, value string }{
		{"ASSAY_SERVER_PORT", "http"},
		{"ASSAY_API_MAX_BATCH_SIZE", "many"},
		{"ASSAY_DB_MAX_OPEN_CONNS", "lots"},
		{"ASSAY_CORS_ENABLED", "maybe"},
	}
	for _, e := range malformedEnv {
		t.Run("malformed "+e.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(e.name, e.value)
			if _, err := config.Load(""); err == nil {
				t.Errorf("expected error for %s=%q", e.name, e.value)
			}
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		if _, err := config.Load("does-not-exist.toml"); err == nil {
			t.Error("expected error for missing explicit config")
		}
	})
}

func TestMergePreservesUnsetFields(t *testing.T) {
	base := config.Config{
		Server:   config.ServerConfig{Host: "0.0.0.0", Port: 8080},
		Taxonomy: config.TaxonomyConfig{Source: "a.csv", Sheet: "Main"},
	}
	base.Merge(&config.Config{
		Server:   config.ServerConfig{Port: 9000},
		Taxonomy: config.TaxonomyConfig{Source: "b.xlsx"},
	})

	if base.Server.Host != "0.0.0.0" || base.Server.Port != 9000 {
		t.Errorf("server = %+v", base.Server)
	}
	if base.Taxonomy.Source != "b.xlsx" || base.Taxonomy.Sheet != "Main" {
		t.Errorf("taxonomy = %+v", base.Taxonomy)
	}
}
