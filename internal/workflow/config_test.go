package workflow_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/assay/internal/workflow"
)

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg workflow.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.MaxAttempts != 3 || cfg.Concurrency != 4 {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.CallTimeoutDuration() != 60*time.Second {
			t.Errorf("CallTimeoutDuration = %v, want 60s", cfg.CallTimeoutDuration())
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_WF_ATTEMPTS", "5")
		t.Setenv("TEST_WF_CONCURRENCY", "8")
		t.Setenv("TEST_WF_TIMEOUT", "15s")

		var cfg workflow.Config
		err := cfg.Finalize(&workflow.Env{
			MaxAttempts: "TEST_WF_ATTEMPTS",
			Concurrency: "TEST_WF_CONCURRENCY",
			CallTimeout: "TEST_WF_TIMEOUT",
		})
		if err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.MaxAttempts != 5 || cfg.Concurrency != 8 || cfg.CallTimeoutDuration() != 15*time.Second {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("malformed env", func(t *testing.T) {
		t.Setenv("TEST_WF_ATTEMPTS", "three")

		var cfg workflow.Config
		if err := cfg.Finalize(&workflow.Env{MaxAttempts: "TEST_WF_ATTEMPTS"}); err == nil {
			t.Error("expected error for non-numeric max_attempts")
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		cfg := workflow.Config{CallTimeout: "soon"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error for invalid call_timeout")
		}
	})

	t.Run("negative attempts", func(t *testing.T) {
		cfg := workflow.Config{MaxAttempts: -1}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error for negative max_attempts")
		}
	})

	t.Run("merge", func(t *testing.T) {
		base := workflow.Config{MaxAttempts: 3, Concurrency: 4, CallTimeout: "60s"}
		base.Merge(&workflow.Config{Concurrency: 16})
		if base.Concurrency != 16 || base.MaxAttempts != 3 || base.CallTimeout != "60s" {
			t.Errorf("merged = %+v", base)
		}
	})
}
