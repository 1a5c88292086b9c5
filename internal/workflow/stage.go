package workflow

import (
	"context"
	"slices"

	"github.com/JaimeStill/assay/internal/metrics"
)

// ResolveStage runs the generic narrowing step: ask the oracle to pick from
// options, accept an exact member, otherwise hand the answer to the corrector,
// and fall back to Other when correction fails. The returned value is always a
// member of options or Other. An error means the oracle could not be reached.
func ResolveStage(
	ctx context.Context,
	rt *Runtime,
	req Request,
	stage Stage,
	options []string,
) (string, StageTrace, error) {
	trace := StageTrace{Stage: stage, Options: len(options)}

	if len(options) == 0 {
		value := fallback(&trace)
		return value, trace, nil
	}

	answer, err := invoke(ctx, rt.CallTimeout, "classify", func(ctx context.Context) (string, error) {
		return rt.Classifier.Classify(ctx, req.Material, req.Description, options)
	})
	if err != nil {
		metrics.StageOutcomes.WithLabelValues(string(stage), metrics.OutcomeFailed).Inc()
		return "", trace, err
	}
	trace.Answer = answer

	if slices.Contains(options, answer) {
		trace.Value = answer
		metrics.StageOutcomes.WithLabelValues(string(stage), metrics.OutcomeMatched).Inc()
		return answer, trace, nil
	}

	rt.Logger.DebugContext(ctx, "answer outside option set",
		"material", req.Material,
		"stage", stage,
		"answer", answer,
	)

	correction, err := rt.Corrector().Correct(ctx, answer, options)
	trace.Corrections = correction.Attempts
	if err != nil {
		metrics.StageOutcomes.WithLabelValues(string(stage), metrics.OutcomeFailed).Inc()
		return "", trace, err
	}

	if correction.OK {
		trace.Value = correction.Value
		trace.Corrected = true
		metrics.StageOutcomes.WithLabelValues(string(stage), metrics.OutcomeCorrected).Inc()
		return correction.Value, trace, nil
	}

	value := fallback(&trace)
	return value, trace, nil
}

func fallback(trace *StageTrace) string {
	trace.Value = Other
	trace.Fallback = true
	metrics.StageOutcomes.WithLabelValues(string(trace.Stage), metrics.OutcomeFallback).Inc()
	return Other
}
