package workflow_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/assay/internal/oracle"
	"github.com/JaimeStill/assay/internal/workflow"
)

func TestCorrector(t *testing.T) {
	ctx := context.Background()
	options := []string{"Metal", "Polymer", "Ceramic"}

	tests := []struct {
		name         string
		maxAttempts  int
		normalize    func(answer string, options []string) (string, error)
		wantValue    string
		wantOK       bool
		wantAttempts int
		wantErr      error
	}{
		{
			name:        "first reply is a member",
			maxAttempts: 3,
			normalize: func(string, []string) (string, error) {
				return "Metal", nil
			},
			wantValue:    "Metal",
			wantOK:       true,
			wantAttempts: 1,
		},
		{
			name:         "budget exhausted",
			maxAttempts:  3,
			wantAttempts: 3,
		},
		{
			name:         "zero budget makes no calls",
			maxAttempts:  0,
			wantAttempts: 0,
		},
		{
			name:        "case mismatch is not a member",
			maxAttempts: 2,
			normalize: func(string, []string) (string, error) {
				return "metal", nil
			},
			wantAttempts: 2,
		},
		{
			name:        "unreadable reply gives up",
			maxAttempts: 3,
			normalize: func(string, []string) (string, error) {
				return "", oracle.ErrMalformedResponse
			},
			wantAttempts: 1,
		},
		{
			name:        "unreachable oracle is an error",
			maxAttempts: 3,
			normalize: func(string, []string) (string, error) {
				return "", oracle.ErrUnavailable
			},
			wantAttempts: 1,
			wantErr:      oracle.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &mockOracle{normalize: tt.normalize}
			c := workflow.NewCorrector(o, tt.maxAttempts, time.Second, discard)

			got, err := c.Correct(ctx, "metallic stuff", options)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Value != tt.wantValue || got.OK != tt.wantOK {
				t.Errorf("Correct = %+v, want value %q ok %v", got, tt.wantValue, tt.wantOK)
			}
			if got.Attempts != tt.wantAttempts || o.normalizeCalls != tt.wantAttempts {
				t.Errorf("attempts = %d, calls = %d, want %d", got.Attempts, o.normalizeCalls, tt.wantAttempts)
			}
			if got.OK && !slices.Contains(options, got.Value) {
				t.Errorf("value %q is not an option", got.Value)
			}
		})
	}
}

func TestCorrectorRefeedsLatestReply(t *testing.T) {
	replies := []string{"metal-ish", "Metal."}
	o := &mockOracle{
		normalize: func(answer string, options []string) (string, error) {
			switch answer {
			case "shiny":
				return replies[0], nil
			case replies[0]:
				return replies[1], nil
			case replies[1]:
				return "Metal", nil
			}
			return "lost", nil
		},
	}

	c := workflow.NewCorrector(o, 3, time.Second, discard)
	got, err := c.Correct(context.Background(), "shiny", []string{"Metal", "Polymer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.OK || got.Value != "Metal" || got.Attempts != 3 {
		t.Errorf("Correct = %+v, want Metal after 3 attempts", got)
	}

	want := []string{"shiny", "metal-ish", "Metal."}
	if !slices.Equal(o.normalizeIn, want) {
		t.Errorf("normalize inputs = %v, want %v", o.normalizeIn, want)
	}
}

func TestResolveStage(t *testing.T) {
	ctx := context.Background()
	options := []string{"Metal", "Polymer"}
	req := workflow.Request{Material: "steel", Description: "iron alloy"}

	t.Run("exact member skips correction", func(t *testing.T) {
		o := &mockOracle{classify: func(string, []string) (string, error) { return "Polymer", nil }}
		value, trace, err := workflow.ResolveStage(ctx, newRuntime(steelTaxonomy(), o), req, workflow.StageCategory, options)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != "Polymer" || trace.Corrected || trace.Fallback || o.normalizeCalls != 0 {
			t.Errorf("value = %q, trace = %+v", value, trace)
		}
	})

	t.Run("fallback is Other", func(t *testing.T) {
		o := &mockOracle{classify: garbage}
		value, trace, err := workflow.ResolveStage(ctx, newRuntime(steelTaxonomy(), o), req, workflow.StageCategory, options)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != workflow.Other || !trace.Fallback || trace.Corrections != 3 {
			t.Errorf("value = %q, trace = %+v", value, trace)
		}
	})

	t.Run("empty options resolve to Other without calls", func(t *testing.T) {
		o := &mockOracle{}
		value, trace, err := workflow.ResolveStage(ctx, newRuntime(steelTaxonomy(), o), req, workflow.StageGrade, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != workflow.Other || !trace.Fallback || o.classifyCalls != 0 {
			t.Errorf("value = %q, trace = %+v, calls = %d", value, trace, o.classifyCalls)
		}
	})

	t.Run("value is always an option or Other", func(t *testing.T) {
		answers := []string{"Metal", "metal", "", "Polymer ", "Other", "Ceramic"}
		for _, a := range answers {
			o := &mockOracle{
				classify: func(string, []string) (string, error) { return a, nil },
				normalize: func(answer string, _ []string) (string, error) {
					if answer == "metal" {
						return "Metal", nil
					}
					return answer, nil
				},
			}
			value, _, err := workflow.ResolveStage(ctx, newRuntime(steelTaxonomy(), o), req, workflow.StageCategory, options)
			if err != nil {
				t.Fatalf("answer %q: unexpected error: %v", a, err)
			}
			if value != workflow.Other && !slices.Contains(options, value) {
				t.Errorf("answer %q resolved to %q", a, value)
			}
		}
	})
}
