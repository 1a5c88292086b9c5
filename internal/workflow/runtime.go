package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/assay/internal/metrics"
	"github.com/JaimeStill/assay/internal/oracle"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

// Runtime bundles the dependencies that workflow stages require.
// It is constructed by higher-level composition code and shared read-only
// across concurrent runs.
type Runtime struct {
	Taxonomy    *taxonomy.Taxonomy
	Classifier  oracle.Classifier
	Describer   oracle.Describer
	Logger      *slog.Logger
	MaxAttempts int
	CallTimeout time.Duration
}

// NewRuntime assembles a Runtime from workflow configuration.
func NewRuntime(
	cfg *Config,
	tx *taxonomy.Taxonomy,
	classifier oracle.Classifier,
	describer oracle.Describer,
	logger *slog.Logger,
) *Runtime {
	return &Runtime{
		Taxonomy:    tx,
		Classifier:  classifier,
		Describer:   describer,
		Logger:      logger.With("workflow", "classify"),
		MaxAttempts: cfg.MaxAttempts,
		CallTimeout: cfg.CallTimeoutDuration(),
	}
}

// Corrector returns an answer corrector bound to the runtime's classifier.
func (rt *Runtime) Corrector() *Corrector {
	return NewCorrector(rt.Classifier, rt.MaxAttempts, rt.CallTimeout, rt.Logger)
}

type reply struct {
	text string
	err  error
}

// invoke runs one oracle call bounded by timeout. The call runs in its own
// goroutine so an oracle that ignores its context still cannot stall the
// workflow past the deadline.
func invoke(
	ctx context.Context,
	timeout time.Duration,
	role string,
	call func(context.Context) (string, error),
) (string, error) {
	var (
		cctx   context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		cctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	start := time.Now()
	done := make(chan reply, 1)
	go func() {
		text, err := call(cctx)
		done <- reply{text: text, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-cctx.Done():
		r = reply{err: fmt.Errorf("%w: %w", oracle.ErrUnavailable, cctx.Err())}
	}

	metrics.OracleLatency.WithLabelValues(role).Observe(time.Since(start).Seconds())
	if r.err != nil {
		metrics.OracleCalls.WithLabelValues(role, "error").Inc()
	} else {
		metrics.OracleCalls.WithLabelValues(role, "ok").Inc()
	}

	return r.text, r.err
}
