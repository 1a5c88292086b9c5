package workflow

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/assay/internal/oracle"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

// ErrCancelled indicates the run was aborted by the caller's context before
// it finished. Cancelled runs are never reported as fallback-resolved.
var ErrCancelled = errors.New("classification cancelled")

// StageError reports a failure fatal to one material's run: a taxonomy lookup
// for a key produced by an earlier stage, or an oracle that did not answer.
type StageError struct {
	Material string
	Stage    Stage
	Key      string
	Err      error
}

func (e *StageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s stage failed for %q (key %q): %v", e.Stage, e.Material, e.Key, e.Err)
	}
	return fmt.Sprintf("%s stage failed for %q: %v", e.Stage, e.Material, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a taxonomy lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, taxonomy.ErrNotFound)
}

// IsOracle reports whether err is an oracle failure.
func IsOracle(err error) bool {
	return errors.Is(err, oracle.ErrUnavailable) || errors.Is(err, oracle.ErrMalformedResponse)
}
