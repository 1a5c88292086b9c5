// Package workflow implements material classification against a three-level
// taxonomy. A run describes the material once, then narrows through
// category → subcategory → grade, validating every oracle answer against the
// option set for that stage and correcting or falling back to Other when the
// answer is not a member.
package workflow

import (
	"context"
	"fmt"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/assay/internal/metrics"
)

// Execute classifies a single material by running the state graph
// describe → category → subcategory → grade → finalize. The narrowing stages
// run strictly in order since each option set depends on the previous choice.
//
// When a stage falls back to Other and the taxonomy has no real Other branch
// at that level, the graph routes through skip, which resolves the remaining
// stages to Other without a lookup or oracle call. A taxonomy that does define
// an Other branch is narrowed into like any other key.
//
// Errors are fatal to this material only: *StageError for lookup and oracle
// failures, ErrCancelled when ctx ends first.
func Execute(ctx context.Context, rt *Runtime, material string) (*Result, error) {
	result, err := execute(ctx, rt, material)
	metrics.Materials.WithLabelValues(string(newOutcome(material, result, err).Status)).Inc()
	return result, err
}

func execute(ctx context.Context, rt *Runtime, material string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil).Set(KeyMaterial, material)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractOutcome(finalState)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("assay-classify")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{"describe", DescribeNode(rt)},
		{string(StageCategory), StageNode(rt, StageCategory)},
		{string(StageSubcategory), StageNode(rt, StageSubcategory)},
		{string(StageGrade), StageNode(rt, StageGrade)},
		{"skip", SkipNode(rt)},
		{"finalize", FinalizeNode(rt)},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	edges := []struct {
		from, to  string
		predicate func(state.State) bool
	}{
		// describe → category, or finalize when the description failed
		{"describe", string(StageCategory), state.Not(failed)},
		{"describe", "finalize", failed},

		// category → subcategory, or skip when category fell back with no
		// Other branch to narrow into
		{string(StageCategory), string(StageSubcategory), narrows(rt, StageSubcategory)},
		{string(StageCategory), "skip", shortCircuits(rt, StageSubcategory)},
		{string(StageCategory), "finalize", failed},

		{string(StageSubcategory), string(StageGrade), narrows(rt, StageGrade)},
		{string(StageSubcategory), "skip", shortCircuits(rt, StageGrade)},
		{string(StageSubcategory), "finalize", failed},

		{string(StageGrade), "finalize", nil},
		{"skip", "finalize", nil},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e.from, e.to, e.predicate); err != nil {
			return nil, err
		}
	}

	if err := graph.SetEntryPoint("describe"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

// extractOutcome reads the run's result or its recorded failure from the
// final state.
func extractOutcome(s state.State) (*Result, error) {
	if val, ok := s.Get(KeyFailure); ok {
		err, ok := val.(error)
		if !ok {
			return nil, fmt.Errorf("%s is not error", KeyFailure)
		}
		return nil, err
	}

	result, err := extractResult(s)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func failed(s state.State) bool {
	_, ok := s.Get(KeyFailure)
	return ok
}

// shortCircuits reports whether next is reached after an Other fallback that
// has no taxonomy branch, so the run should skip the remaining stages.
func shortCircuits(rt *Runtime, next Stage) func(state.State) bool {
	return func(s state.State) bool {
		if failed(s) {
			return false
		}
		result, err := extractResult(s)
		if err != nil {
			return false
		}
		return rt.skips(next, result.Category, result.Subcategory)
	}
}

// narrows reports whether next should run as a regular narrowing stage.
func narrows(rt *Runtime, next Stage) func(state.State) bool {
	skip := shortCircuits(rt, next)
	return func(s state.State) bool {
		return !failed(s) && !skip(s)
	}
}

// Options returns the option set for stage given earlier choices. skip is
// true when an earlier sentinel fallback has no matching taxonomy branch.
func (rt *Runtime) Options(stage Stage, category, subcategory string) (options []string, skip bool, err error) {
	if rt.skips(stage, category, subcategory) {
		return nil, true, nil
	}

	tx := rt.Taxonomy
	switch stage {
	case StageCategory:
		return tx.Categories(), false, nil
	case StageSubcategory:
		options, err = tx.Subcategories(category)
		return options, false, err
	case StageGrade:
		options, err = tx.Grades(category, subcategory)
		return options, false, err
	default:
		return nil, false, fmt.Errorf("unknown stage %q", stage)
	}
}

func (rt *Runtime) skips(stage Stage, category, subcategory string) bool {
	tx := rt.Taxonomy
	orphanCategory := category == Other && !tx.HasCategory(Other)

	switch stage {
	case StageSubcategory:
		return orphanCategory
	case StageGrade:
		return orphanCategory || (subcategory == Other && !tx.HasSubcategory(category, Other))
	}
	return false
}
