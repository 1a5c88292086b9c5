package api

import (
	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/infrastructure"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

// Runtime extends Infrastructure with API-specific configuration and the
// classification workflow.
type Runtime struct {
	*infrastructure.Infrastructure
	Workflow *workflow.Runtime
	Taxonomy *taxonomy.Taxonomy
	API      config.APIConfig
	Model    string
	Parallel int
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
	wf *workflow.Runtime,
) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Cache:     infra.Cache,
		},
		Workflow: wf,
		Taxonomy: wf.Taxonomy,
		API:      cfg.API,
		Model:    cfg.Oracle.Model,
		Parallel: cfg.Workflow.Concurrency,
	}
}
