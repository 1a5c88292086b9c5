package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/JaimeStill/assay/internal/oracle"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockOracle is a deterministic oracle double. classify and normalize default
// to echoing the first option and returning garbage respectively.
type mockOracle struct {
	mu sync.Mutex

	description string
	describeErr error
	classify    func(subject string, options []string) (string, error)
	normalize   func(answer string, options []string) (string, error)

	describeCalls  int
	classifyCalls  int
	normalizeCalls int
	normalizeIn    []string
}

func (m *mockOracle) Describe(ctx context.Context, material string) (string, error) {
	m.mu.Lock()
	m.describeCalls++
	m.mu.Unlock()

	if m.describeErr != nil {
		return "", m.describeErr
	}
	if m.description != "" {
		return m.description, nil
	}
	return material + " description", nil
}

func (m *mockOracle) Classify(ctx context.Context, subject, detail string, options []string) (string, error) {
	m.mu.Lock()
	m.classifyCalls++
	m.mu.Unlock()

	if m.classify == nil {
		return options[0], nil
	}
	return m.classify(subject, options)
}

func (m *mockOracle) Normalize(ctx context.Context, answer string, options []string) (string, error) {
	m.mu.Lock()
	m.normalizeCalls++
	m.normalizeIn = append(m.normalizeIn, answer)
	m.mu.Unlock()

	if m.normalize == nil {
		return "still wrong", nil
	}
	return m.normalize(answer, options)
}

func garbage(string, []string) (string, error) { return "¯\\_(ツ)_/¯", nil }

func steelTaxonomy() *taxonomy.Taxonomy {
	tx := taxonomy.New()
	tx.Add("Metal", "Ferrous", "Steel-A36")
	return tx
}

func broadTaxonomy() *taxonomy.Taxonomy {
	tx := taxonomy.New()
	tx.Add("Metal", "Ferrous", "Steel-A36")
	tx.Add("Metal", "Ferrous", "Steel-1045")
	tx.Add("Metal", "Non-Ferrous", "Al-6061")
	tx.Add("Polymer", "Thermoplastic", "PEEK")
	return tx
}

func newRuntime(tx *taxonomy.Taxonomy, o *mockOracle) *workflow.Runtime {
	return &workflow.Runtime{
		Taxonomy:    tx,
		Classifier:  o,
		Describer:   o,
		Logger:      discard,
		MaxAttempts: 3,
		CallTimeout: time.Second,
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("exact answers resolve every stage", func(t *testing.T) {
		o := &mockOracle{}
		got, err := workflow.Execute(ctx, newRuntime(steelTaxonomy(), o), "steel")
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if got.Category != "Metal" || got.Subcategory != "Ferrous" || got.Grade != "Steel-A36" {
			t.Errorf("result = %s/%s/%s, want Metal/Ferrous/Steel-A36", got.Category, got.Subcategory, got.Grade)
		}
		if got.Description != "steel description" {
			t.Errorf("Description = %q", got.Description)
		}
		if o.describeCalls != 1 {
			t.Errorf("describe calls = %d, want 1", o.describeCalls)
		}
		if o.normalizeCalls != 0 {
			t.Errorf("normalize calls = %d, want 0", o.normalizeCalls)
		}
		if len(got.Trace) != 3 || got.Fallbacks() != 0 || got.Corrections() != 0 {
			t.Errorf("trace = %+v", got.Trace)
		}
	})

	t.Run("garbage oracle and failing corrector yield Other everywhere", func(t *testing.T) {
		o := &mockOracle{classify: garbage}
		got, err := workflow.Execute(ctx, newRuntime(steelTaxonomy(), o), "steel")
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}

		if got.Category != workflow.Other || got.Subcategory != workflow.Other || got.Grade != workflow.Other {
			t.Errorf("result = %s/%s/%s, want Other/Other/Other", got.Category, got.Subcategory, got.Grade)
		}
		if o.classifyCalls != 1 {
			t.Errorf("classify calls = %d, want 1 (later stages short-circuit)", o.classifyCalls)
		}
		if o.normalizeCalls != 3 {
			t.Errorf("normalize calls = %d, want 3", o.normalizeCalls)
		}
		if !got.Trace[0].Fallback || !got.Trace[1].Skipped || !got.Trace[2].Skipped {
			t.Errorf("trace = %+v", got.Trace)
		}
		if got.Fallbacks() != 3 {
			t.Errorf("Fallbacks = %d, want 3", got.Fallbacks())
		}
	})

	t.Run("subcategory fallback short-circuits grade", func(t *testing.T) {
		o := &mockOracle{
			classify: func(_ string, options []string) (string, error) {
				if slices.Contains(options, "Metal") {
					return "Metal", nil
				}
				return "nonsense", nil
			},
		}
		got, err := workflow.Execute(ctx, newRuntime(broadTaxonomy(), o), "steel")
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if got.Category != "Metal" || got.Subcategory != workflow.Other || got.Grade != workflow.Other {
			t.Errorf("result = %s/%s/%s, want Metal/Other/Other", got.Category, got.Subcategory, got.Grade)
		}
		if !got.Trace[2].Skipped {
			t.Error("grade stage should be skipped")
		}
	})

	t.Run("real Other branch is narrowed into", func(t *testing.T) {
		tx := broadTaxonomy()
		tx.Add(workflow.Other, "Unclassified", "Unknown")

		o := &mockOracle{
			classify: func(_ string, options []string) (string, error) {
				if slices.Contains(options, "Metal") {
					return "mystery", nil
				}
				return options[0], nil
			},
		}
		got, err := workflow.Execute(ctx, newRuntime(tx, o), "unobtainium")
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if got.Category != workflow.Other || got.Subcategory != "Unclassified" || got.Grade != "Unknown" {
			t.Errorf("result = %s/%s/%s, want Other/Unclassified/Unknown", got.Category, got.Subcategory, got.Grade)
		}
		if o.classifyCalls != 3 {
			t.Errorf("classify calls = %d, want 3", o.classifyCalls)
		}
	})

	t.Run("corrected answers are used", func(t *testing.T) {
		o := &mockOracle{
			classify: func(_ string, options []string) (string, error) {
				return "The answer is " + options[0], nil
			},
			normalize: func(answer string, options []string) (string, error) {
				return options[0], nil
			},
		}
		got, err := workflow.Execute(ctx, newRuntime(steelTaxonomy(), o), "steel")
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if got.Grade != "Steel-A36" || got.Corrections() != 3 {
			t.Errorf("result = %+v", got)
		}
		for _, tr := range got.Trace {
			if !tr.Corrected {
				t.Errorf("stage %s not marked corrected", tr.Stage)
			}
		}
	})

	t.Run("empty taxonomy falls back without oracle calls", func(t *testing.T) {
		o := &mockOracle{}
		got, err := workflow.Execute(ctx, newRuntime(taxonomy.New(), o), "steel")
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if got.Category != workflow.Other || got.Grade != workflow.Other {
			t.Errorf("result = %+v", got)
		}
		if o.classifyCalls != 0 {
			t.Errorf("classify calls = %d, want 0", o.classifyCalls)
		}
	})

	t.Run("describe failure is fatal", func(t *testing.T) {
		o := &mockOracle{describeErr: oracle.ErrUnavailable}
		_, err := workflow.Execute(ctx, newRuntime(steelTaxonomy(), o), "steel")

		var se *workflow.StageError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *StageError", err)
		}
		if se.Stage != workflow.StageDescribe || !workflow.IsOracle(err) {
			t.Errorf("StageError = %+v", se)
		}
		if o.classifyCalls != 0 {
			t.Errorf("classify calls = %d, want 0", o.classifyCalls)
		}
	})

	t.Run("classify failure is fatal", func(t *testing.T) {
		o := &mockOracle{
			classify: func(string, []string) (string, error) {
				return "", oracle.ErrMalformedResponse
			},
		}
		_, err := workflow.Execute(ctx, newRuntime(steelTaxonomy(), o), "steel")

		var se *workflow.StageError
		if !errors.As(err, &se) || se.Stage != workflow.StageCategory {
			t.Fatalf("error = %v, want category *StageError", err)
		}
		if !errors.Is(err, oracle.ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("oracle ignoring its deadline still times out", func(t *testing.T) {
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })

		o := &mockOracle{
			classify: func(string, []string) (string, error) {
				<-release
				return "Metal", nil
			},
		}
		rt := newRuntime(steelTaxonomy(), o)
		rt.CallTimeout = 20 * time.Millisecond

		start := time.Now()
		_, err := workflow.Execute(ctx, rt, "steel")
		if time.Since(start) > 2*time.Second {
			t.Fatal("Execute did not honor the call timeout")
		}

		if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, oracle.ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable wrapping DeadlineExceeded", err)
		}
		if errors.Is(err, workflow.ErrCancelled) {
			t.Error("a call timeout is a stage failure, not a cancellation")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		o := &mockOracle{}
		_, err := workflow.Execute(cctx, newRuntime(steelTaxonomy(), o), "steel")
		if !errors.Is(err, workflow.ErrCancelled) {
			t.Fatalf("error = %v, want ErrCancelled", err)
		}
		if o.describeCalls != 0 {
			t.Errorf("describe calls = %d, want 0", o.describeCalls)
		}
	})

	t.Run("cancellation mid-run is reported as cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		o := &mockOracle{
			classify: func(string, []string) (string, error) {
				cancel()
				return "", context.Canceled
			},
		}
		_, err := workflow.Execute(cctx, newRuntime(steelTaxonomy(), o), "steel")
		if !errors.Is(err, workflow.ErrCancelled) {
			t.Errorf("error = %v, want ErrCancelled", err)
		}
	})
}

func TestOptions(t *testing.T) {
	rt := newRuntime(broadTaxonomy(), &mockOracle{})

	t.Run("category options", func(t *testing.T) {
		got, skip, err := rt.Options(workflow.StageCategory, "", "")
		if err != nil || skip {
			t.Fatalf("Options = %v, %v, %v", got, skip, err)
		}
		if !slices.Equal(got, []string{"Metal", "Polymer"}) {
			t.Errorf("options = %v", got)
		}
	})

	t.Run("scoped grade options", func(t *testing.T) {
		got, _, err := rt.Options(workflow.StageGrade, "Metal", "Ferrous")
		if err != nil {
			t.Fatalf("Options error: %v", err)
		}
		if !slices.Equal(got, []string{"Steel-A36", "Steel-1045"}) {
			t.Errorf("options = %v", got)
		}
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		_, _, err := rt.Options(workflow.StageGrade, "Metal", "Cast")
		if !workflow.IsNotFound(err) {
			t.Errorf("error = %v, want taxonomy not found", err)
		}
	})

	t.Run("sentinel without branch skips", func(t *testing.T) {
		_, skip, err := rt.Options(workflow.StageSubcategory, workflow.Other, "")
		if err != nil || !skip {
			t.Errorf("skip = %v, err = %v, want skip", skip, err)
		}
	})
}
