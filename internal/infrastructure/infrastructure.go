// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, persistence, storage, cache,
// taxonomy, oracle) that the server and CLI compose into a classification runtime.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/oracle"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/cache"
	"github.com/JaimeStill/assay/pkg/database"
	"github.com/JaimeStill/assay/pkg/lifecycle"
	"github.com/JaimeStill/assay/pkg/storage"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

// ErrEmptyTaxonomy is reported by the taxonomy readiness check when no
// categories are loaded.
var ErrEmptyTaxonomy = errors.New("taxonomy is empty")

// Infrastructure holds the core systems required by domain modules.
// Storage and Cache are nil when their configuration leaves them disabled.
// Database is nil when constructed WithoutDatabase.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Cache     cache.System
}

type options struct {
	database bool
}

// Option adjusts which systems New initializes.
type Option func(*options)

// WithoutDatabase skips the persistence layer for callers that classify
// without recording results.
func WithoutDatabase() Option {
	return func(o *options) { o.database = false }
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Infrastructure, error) {
	o := options{database: true}
	for _, opt := range opts {
		opt(&o)
	}

	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
	}

	if o.database {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.Storage.Enabled() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	if cfg.Cache.Enabled() {
		c, err := cache.New(&cfg.Cache, logger)
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		infra.Cache = c
	}

	return infra, nil
}

// Start registers every initialized system with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if i.Cache != nil {
		if err := i.Cache.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("cache start failed: %w", err)
		}
	}
	return nil
}

// LoadTaxonomy reads the configured taxonomy source, resolving blob: sources
// through Storage. On failure the returned taxonomy is empty and usable; the
// caller decides whether to abort. A readiness check reporting an empty
// taxonomy is registered either way.
func (i *Infrastructure) LoadTaxonomy(ctx context.Context, cfg *config.TaxonomyConfig) (*taxonomy.Taxonomy, error) {
	var d taxonomy.Downloader
	if i.Storage != nil {
		d = i.Storage
	}

	tx, err := taxonomy.Open(ctx, cfg.Source, cfg.Sheet, d)

	i.Lifecycle.Check("taxonomy", func(context.Context) error {
		if len(tx.Categories()) == 0 {
			return ErrEmptyTaxonomy
		}
		return nil
	})

	if err != nil {
		return tx, err
	}

	i.Logger.Info(
		"taxonomy loaded",
		"source", cfg.Source,
		"categories", len(tx.Categories()),
	)
	return tx, nil
}

// NewRuntime builds the oracle named by the configuration and binds it with
// tx into a workflow runtime. Descriptions are memoized when Cache is enabled.
func (i *Infrastructure) NewRuntime(
	ctx context.Context,
	cfg *config.Config,
	tx *taxonomy.Taxonomy,
) (*workflow.Runtime, error) {
	o, err := oracle.New(ctx, &cfg.Oracle, i.Logger)
	if err != nil {
		return nil, fmt.Errorf("oracle init failed: %w", err)
	}

	var describer oracle.Describer = o
	if i.Cache != nil {
		describer = oracle.NewCachedDescriber(o, i.Cache, i.Logger)
	}

	return workflow.NewRuntime(&cfg.Workflow, tx, o, describer, i.Logger), nil
}
