package cache_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/assay/pkg/cache"
)

func TestConfigFinalize(t *testing.T) {
	env := &cache.Env{
		URL: "TEST_CACHE_URL",
		TTL: "TEST_CACHE_TTL",
	}

	t.Run("defaults", func(t *testing.T) {
		var c cache.Config
		if err := c.Finalize(nil); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if c.Enabled() {
			t.Error("cache should be disabled without a URL")
		}
		if c.Prefix != "assay:" {
			t.Errorf("Prefix = %q, want assay:", c.Prefix)
		}
		if c.TTLDuration() != 168*time.Hour {
			t.Errorf("TTL = %v, want 168h", c.TTLDuration())
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_CACHE_URL", "redis://localhost:6379/0")
		t.Setenv("TEST_CACHE_TTL", "1h")

		var c cache.Config
		if err := c.Finalize(env); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if !c.Enabled() {
			t.Error("cache should be enabled")
		}
		if c.TTLDuration() != time.Hour {
			t.Errorf("TTL = %v, want 1h", c.TTLDuration())
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		c := cache.Config{TTL: "soon"}
		if err := c.Finalize(nil); err == nil {
			t.Error("expected error for invalid ttl")
		}
	})

	t.Run("merge", func(t *testing.T) {
		c := cache.Config{URL: "redis://a:6379", Prefix: "x:"}
		c.Merge(&cache.Config{URL: "redis://b:6379"})
		if c.URL != "redis://b:6379" || c.Prefix != "x:" {
			t.Errorf("Merge = %+v", c)
		}
	})
}

func TestNewInvalidURL(t *testing.T) {
	if _, err := cache.New(&cache.Config{URL: "://bad"}, nil); err == nil {
		t.Error("expected error for invalid url")
	}
}
