package workflow

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Batch classifies materials concurrently with at most concurrency runs in
// flight. Outcomes are index-aligned with materials. A failed material never
// stops the others; when ctx is cancelled, in-flight and unstarted materials
// are reported as cancelled.
func Batch(ctx context.Context, rt *Runtime, materials []string, concurrency int) []Outcome {
	outcomes := make([]Outcome, len(materials))
	for i, m := range materials {
		outcomes[i] = cancelledOutcome(m, ctx.Err())
	}

	// A plain Group: one material failing must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(workerCount(concurrency, len(materials)))

	for i, material := range materials {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			result, err := Execute(ctx, rt, material)
			outcomes[i] = newOutcome(material, result, err)

			rt.Logger.InfoContext(ctx, "material finished",
				"material", material,
				"status", outcomes[i].Status,
			)
			return nil
		})
	}

	g.Wait()
	return outcomes
}

func newOutcome(material string, result *Result, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Material: material, Status: StatusResolved, Result: result}
	case errors.Is(err, ErrCancelled):
		return Outcome{Material: material, Status: StatusCancelled, Err: err, Error: err.Error()}
	default:
		return Outcome{Material: material, Status: StatusFailed, Err: err, Error: err.Error()}
	}
}

func cancelledOutcome(material string, cause error) Outcome {
	err := ErrCancelled
	if cause != nil {
		err = errors.Join(ErrCancelled, cause)
	}
	return Outcome{Material: material, Status: StatusCancelled, Err: err, Error: err.Error()}
}

func workerCount(concurrency, materials int) int {
	return max(min(concurrency, materials), 1)
}
