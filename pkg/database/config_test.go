package database_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/assay/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	var cfg database.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"name", cfg.Name, "assay"},
		{"user", cfg.User, "assay"},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetime, "15m"},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "remotehost")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_NAME", "envdb")
	t.Setenv("TEST_DB_MAX_OPEN", "50")
	t.Setenv("TEST_DB_TIMEOUT", "10s")

	env := &database.Env{
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		Name:         "TEST_DB_NAME",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
		ConnTimeout:  "TEST_DB_TIMEOUT",
	}

	var cfg database.Config
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Host != "remotehost" || cfg.Port != 5433 || cfg.Name != "envdb" {
		t.Errorf("connection fields = %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	}
	if cfg.MaxOpenConns != 50 || cfg.ConnTimeout != "10s" {
		t.Errorf("pool fields = %d, %s", cfg.MaxOpenConns, cfg.ConnTimeout)
	}
}

func TestDsn(t *testing.T) {
	t.Run("discrete fields", func(t *testing.T) {
		cfg := database.Config{Host: "db", Port: 5432, Name: "assay", User: "u", Password: "p", SSLMode: "disable"}
		dsn := cfg.Dsn()
		for _, part := range []string{"host=db", "port=5432", "dbname=assay", "user=u", "sslmode=disable"} {
			if !strings.Contains(dsn, part) {
				t.Errorf("dsn %q missing %q", dsn, part)
			}
		}
		if got := cfg.ConnURL(); got != "postgres://u:p@db:5432/assay?sslmode=disable" {
			t.Errorf("ConnURL = %q", got)
		}
	})

	t.Run("url wins", func(t *testing.T) {
		t.Setenv("TEST_DB_URL", "postgres://u:p@db:5432/assay?sslmode=disable")

		var cfg database.Config
		if err := cfg.Finalize(&database.Env{URL: "TEST_DB_URL"}); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Dsn() != "postgres://u:p@db:5432/assay?sslmode=disable" {
			t.Errorf("dsn = %q", cfg.Dsn())
		}
	})
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
	}{
		{"bad lifetime", database.Config{ConnMaxLifetime: "forever"}},
		{"bad timeout", database.Config{ConnTimeout: "soon"}},
		{"negative port", database.Config{Port: -1}},
		{"idle exceeds open", database.Config{MaxOpenConns: 2, MaxIdleConns: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFinalizeMalformedEnv(t *testing.T) {
	t.Setenv("TEST_DB_PORT", "five")

	var cfg database.Config
	err := cfg.Finalize(&database.Env{Port: "TEST_DB_PORT"})
	if err == nil || !strings.Contains(err.Error(), "TEST_DB_PORT") {
		t.Fatalf("err = %v, want error naming TEST_DB_PORT", err)
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "assay"}
	base.Merge(&database.Config{Host: "prod-db", MaxOpenConns: 80})

	if base.Host != "prod-db" || base.Port != 5432 || base.MaxOpenConns != 80 || base.Name != "assay" {
		t.Errorf("merged = %+v", base)
	}
}
