package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/assay/internal/api"
	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/infrastructure"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/handlers"
	"github.com/JaimeStill/assay/pkg/module"
)

const readinessTimeout = 2 * time.Second

// Modules holds the prefixed HTTP modules mounted on the router.
type Modules struct {
	API *module.Module
}

// NewModules creates every HTTP module.
func NewModules(cfg *config.Config, infra *infrastructure.Infrastructure, wf *workflow.Runtime) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra, wf)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

// Mount registers every module on router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failures := infra.Lifecycle.Readiness(ctx)
		if len(failures) > 0 {
			checks := make(map[string]string, len(failures))
			for name, err := range failures {
				checks[name] = err.Error()
			}
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"checks": checks,
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}))

	router.HandleNative("GET /metrics", promhttp.Handler())

	return router
}
