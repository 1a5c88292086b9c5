package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/infrastructure"
)

// Server composes infrastructure, the API module, and the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

// NewServer initializes every subsystem without starting them. A taxonomy
// that fails to load leaves the server running with an empty taxonomy and a
// failing readiness check.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	infra, err := infrastructure.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	tx, err := infra.LoadTaxonomy(ctx, &cfg.Taxonomy)
	if err != nil {
		logger.Warn("taxonomy unavailable", "source", cfg.Taxonomy.Source, "error", err)
	}

	wf, err := infra.NewRuntime(ctx, cfg, tx)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(cfg, infra, wf)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"model", cfg.Oracle.Model,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers all subsystems with the lifecycle and begins listening.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown stops the listener and closes subsystems within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
