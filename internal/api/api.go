// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/infrastructure"
	"github.com/JaimeStill/assay/internal/metrics"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/middleware"
	"github.com/JaimeStill/assay/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// wf is the classification runtime shared by every request.
func NewModule(
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
	wf *workflow.Runtime,
) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra, wf)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Metrics(metrics.HTTPRequests, metrics.HTTPLatency))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
