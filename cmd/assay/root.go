package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/infrastructure"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

const shutdownTimeout = 5 * time.Second

// app carries the state shared by every subcommand. Persistent flags are
// bound to its fields and setup fills in the rest.
type app struct {
	configPath     string
	taxonomySource string
	debug          bool

	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
	infra  *infrastructure.Infrastructure
}

// execute runs the command tree with args. Infrastructure started by setup
// is shut down whether or not the command succeeded.
func (a *app) execute(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.teardown())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "assay",
		Short:        "Classify materials against a category/subcategory/grade taxonomy",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is config.toml when present)")
	root.PersistentFlags().StringVar(&a.taxonomySource, "taxonomy", "", "taxonomy source path or blob:// key (overrides config)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newClassifyCmd(a),
		newBatchCmd(a),
		newTaxonomyCmd(a),
	)
	return root
}

func (a *app) setup() error {
	level := slog.LevelInfo
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(tint.NewHandler(a.stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.taxonomySource != "" {
		cfg.Taxonomy.Source = a.taxonomySource
	}
	a.cfg = cfg

	infra, err := infrastructure.New(cfg, a.logger, infrastructure.WithoutDatabase())
	if err != nil {
		return err
	}
	if err := infra.Start(); err != nil {
		return err
	}
	infra.Lifecycle.WaitForStartup()
	a.infra = infra

	a.logger.Debug("assay ready", "version", cfg.Version, "taxonomy", cfg.Taxonomy.Source)
	return nil
}

func (a *app) teardown() error {
	if a.infra == nil {
		return nil
	}
	return a.infra.Lifecycle.Shutdown(shutdownTimeout)
}

// taxonomy loads the configured taxonomy. Unlike the server, the CLI treats
// an unreadable source as fatal.
func (a *app) taxonomy(cmd *cobra.Command) (*taxonomy.Taxonomy, error) {
	tx, err := a.infra.LoadTaxonomy(cmd.Context(), &a.cfg.Taxonomy)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (a *app) runtime(cmd *cobra.Command) (*workflow.Runtime, error) {
	tx, err := a.taxonomy(cmd)
	if err != nil {
		return nil, err
	}
	return a.infra.NewRuntime(cmd.Context(), a.cfg, tx)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
