package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/assay/internal/metrics"
)

// State keys carried between graph nodes.
const (
	KeyMaterial = "material"
	KeyResult   = "result"
	KeyFailure  = "failure"
)

var narrowing = []Stage{StageCategory, StageSubcategory, StageGrade}

// DescribeNode returns a state node that fetches the material description
// once and seeds the Result that the narrowing stages fill in.
func DescribeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		material, err := extractMaterial(s)
		if err != nil {
			return s, fmt.Errorf("describe: %w", err)
		}

		desc, err := invoke(ctx, rt.CallTimeout, "describe", func(ctx context.Context) (string, error) {
			return rt.Describer.Describe(ctx, material)
		})
		if err != nil {
			return fail(s, stageFailure(ctx, material, StageDescribe, "", err)), nil
		}

		rt.Logger.InfoContext(ctx, "material described", "material", material)

		return s.Set(KeyResult, Result{
			Material:    material,
			Description: desc,
			Trace:       make([]StageTrace, 0, len(narrowing)),
		}), nil
	})
}

// StageNode returns a state node that resolves one narrowing stage against
// the option set selected by the earlier stages.
func StageNode(rt *Runtime, stage Stage) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		result, err := extractResult(s)
		if err != nil {
			return s, fmt.Errorf("%s: %w", stage, err)
		}

		if err := ctx.Err(); err != nil {
			return fail(s, fmt.Errorf("%w: %s stage: %w", ErrCancelled, stage, err)), nil
		}

		options, _, err := rt.Options(stage, result.Category, result.Subcategory)
		if err != nil {
			return fail(s, stageFailure(ctx, result.Material, stage, lookupKey(stage, &result), err)), nil
		}

		req := Request{Material: result.Material, Description: result.Description}
		value, trace, err := ResolveStage(ctx, rt, req, stage, options)
		if err != nil {
			return fail(s, stageFailure(ctx, result.Material, stage, "", err)), nil
		}

		result.set(stage, value)
		result.Trace = append(result.Trace, trace)

		rt.Logger.InfoContext(ctx, "stage resolved",
			"material", result.Material,
			"stage", stage,
			"value", value,
			"corrections", trace.Corrections,
			"fallback", trace.Fallback,
		)

		return s.Set(KeyResult, result), nil
	})
}

// SkipNode returns a state node that resolves every stage not yet traced to
// Other without a lookup or oracle call.
func SkipNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		result, err := extractResult(s)
		if err != nil {
			return s, fmt.Errorf("skip: %w", err)
		}

		for _, stage := range narrowing[len(result.Trace):] {
			result.set(stage, Other)
			result.Trace = append(result.Trace, StageTrace{Stage: stage, Value: Other, Skipped: true})
			metrics.StageOutcomes.WithLabelValues(string(stage), metrics.OutcomeSkipped).Inc()
		}

		rt.Logger.DebugContext(ctx, "remaining stages skipped", "material", result.Material)
		return s.Set(KeyResult, result), nil
	})
}

// FinalizeNode returns the exit node. A run that completed every stage but
// whose context ended meanwhile is recorded as cancelled.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		if failed(s) {
			return s, nil
		}
		if err := ctx.Err(); err != nil {
			return fail(s, fmt.Errorf("%w: %w", ErrCancelled, err)), nil
		}

		if result, err := extractResult(s); err == nil {
			rt.Logger.InfoContext(ctx, "material classified",
				"material", result.Material,
				"corrections", result.Corrections(),
				"fallbacks", result.Fallbacks(),
			)
		}
		return s, nil
	})
}

func (r *Result) set(stage Stage, value string) {
	switch stage {
	case StageCategory:
		r.Category = value
	case StageSubcategory:
		r.Subcategory = value
	case StageGrade:
		r.Grade = value
	}
}

func extractMaterial(s state.State) (string, error) {
	val, ok := s.Get(KeyMaterial)
	if !ok {
		return "", fmt.Errorf("missing %s in state", KeyMaterial)
	}
	material, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s is not string", KeyMaterial)
	}
	return material, nil
}

func extractResult(s state.State) (Result, error) {
	val, ok := s.Get(KeyResult)
	if !ok {
		return Result{}, fmt.Errorf("missing %s in state", KeyResult)
	}
	result, ok := val.(Result)
	if !ok {
		return Result{}, fmt.Errorf("%s is not Result", KeyResult)
	}
	return result, nil
}

// fail records err as the run's failure. Failures travel in state so the
// graph routes to finalize instead of aborting.
func fail(s state.State, err error) state.State {
	return s.Set(KeyFailure, err)
}

// lookupKey names the taxonomy key a stage's option lookup depends on.
func lookupKey(stage Stage, r *Result) string {
	switch stage {
	case StageSubcategory:
		return r.Category
	case StageGrade:
		return r.Category + "/" + r.Subcategory
	}
	return ""
}

func stageFailure(ctx context.Context, material string, stage Stage, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s stage: %w", ErrCancelled, stage, ctxErr)
	}
	if errors.Is(err, ErrCancelled) {
		return err
	}
	return &StageError{Material: material, Stage: stage, Key: key, Err: err}
}
