package workflow

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/JaimeStill/assay/internal/metrics"
	"github.com/JaimeStill/assay/internal/oracle"
)

// Correction is the result of one Correct call.
type Correction struct {
	// Value is the corrected option; empty unless OK.
	Value string
	// Attempts is the number of oracle calls made.
	Attempts int
	// OK reports whether Value is a member of the option set.
	OK bool
}

// Corrector coerces an answer that failed exact-match validation into a
// member of the option set by asking the oracle to normalize it.
type Corrector struct {
	classifier  oracle.Classifier
	maxAttempts int
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewCorrector creates a Corrector that makes at most maxAttempts oracle
// calls per Correct.
func NewCorrector(
	classifier oracle.Classifier,
	maxAttempts int,
	callTimeout time.Duration,
	logger *slog.Logger,
) *Corrector {
	return &Corrector{
		classifier:  classifier,
		maxAttempts: maxAttempts,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Correct feeds answer to the oracle's normalization prompt until the reply is
// a byte-exact member of options or the attempt budget is spent. Each retry
// submits the oracle's latest reply, not the original answer.
//
// Running out of attempts is not an error: the returned Correction has
// OK == false. An unreadable oracle response ends the loop the same way.
// Any other oracle failure is returned.
func (c *Corrector) Correct(ctx context.Context, answer string, options []string) (Correction, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		next, err := invoke(ctx, c.callTimeout, "normalize", func(ctx context.Context) (string, error) {
			return c.classifier.Normalize(ctx, answer, options)
		})

		if err != nil {
			if errors.Is(err, oracle.ErrMalformedResponse) {
				c.logger.WarnContext(ctx, "correction abandoned on unreadable response",
					"answer", answer,
					"attempt", attempt+1,
					"error", err,
				)
				metrics.CorrectionsExhausted.Inc()
				return Correction{Attempts: attempt + 1}, nil
			}
			return Correction{Attempts: attempt + 1}, err
		}

		if slices.Contains(options, next) {
			return Correction{Value: next, Attempts: attempt + 1, OK: true}, nil
		}

		c.logger.DebugContext(ctx, "correction attempt rejected",
			"answer", answer,
			"reply", next,
			"attempt", attempt+1,
		)
		answer = next
	}

	c.logger.InfoContext(ctx, "correction exhausted",
		"answer", answer,
		"attempts", c.maxAttempts,
	)
	metrics.CorrectionsExhausted.Inc()
	return Correction{Attempts: max(c.maxAttempts, 0)}, nil
}
