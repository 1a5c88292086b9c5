package classifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/pagination"
	"github.com/JaimeStill/assay/pkg/query"
	"github.com/JaimeStill/assay/pkg/repository"
)

// Options bounds the work a single request may start.
type Options struct {
	Pagination   pagination.Config
	MaxBatchSize int
	Concurrency  int
	MaxBodySize  int64
}

type repo struct {
	db     *sql.DB
	rt     *workflow.Runtime
	model  string
	logger *slog.Logger
	opts   Options
}

// New creates a classification repository implementing the System interface.
// model is recorded with every stored classification.
func New(
	db *sql.DB,
	rt *workflow.Runtime,
	model string,
	logger *slog.Logger,
	opts Options,
) System {
	return &repo{
		db:     db,
		rt:     rt,
		model:  model,
		logger: logger.With("system", "classifications"),
		opts:   opts,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.opts)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Classification], error) {
	page.Normalize(r.opts.Pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Material", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryScalar[int](ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count classifications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Classify(ctx context.Context, material string) (*Classification, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, ErrInvalidMaterial
	}

	result, err := workflow.Execute(ctx, r.rt, material)
	if err != nil {
		return nil, fmt.Errorf("classify material %q: %w", material, err)
	}

	return r.record(ctx, result)
}

func (r *repo) ClassifyBatch(ctx context.Context, materials []string) ([]BatchOutcome, error) {
	if len(materials) == 0 {
		return nil, ErrEmptyBatch
	}
	if r.opts.MaxBatchSize > 0 && len(materials) > r.opts.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(materials), r.opts.MaxBatchSize)
	}

	cleaned := make([]string, len(materials))
	for i, m := range materials {
		cleaned[i] = strings.TrimSpace(m)
		if cleaned[i] == "" {
			return nil, fmt.Errorf("%w: index %d", ErrInvalidMaterial, i)
		}
	}

	outcomes := workflow.Batch(ctx, r.rt, cleaned, r.opts.Concurrency)

	results := make([]BatchOutcome, len(outcomes))
	for i, o := range outcomes {
		results[i] = BatchOutcome{
			Material: o.Material,
			Status:   o.Status,
			Error:    o.Error,
		}
		if o.Status != workflow.StatusResolved {
			continue
		}

		c, err := r.record(ctx, o.Result)
		if err != nil {
			results[i].Status = workflow.StatusFailed
			results[i].Error = err.Error()
			continue
		}
		results[i].Classification = c
	}

	r.logger.Info("batch classified", "materials", len(materials))
	return results, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM classifications WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification deleted", "id", id)
	return nil
}

// record upserts result keyed by material, replacing any earlier
// classification of the same material.
func (r *repo) record(ctx context.Context, result *workflow.Result) (*Classification, error) {
	traceJSON, err := json.Marshal(result.Trace)
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}

	upsertQ := `
		INSERT INTO classifications(
			material, description, category, subcategory, grade,
			corrections, fallbacks, trace, model_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (material) DO UPDATE SET
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			grade = EXCLUDED.grade,
			corrections = EXCLUDED.corrections,
			fallbacks = EXCLUDED.fallbacks,
			trace = EXCLUDED.trace,
			model_name = EXCLUDED.model_name,
			classified_at = NOW()
		` + returning

	upsertArgs := []any{
		result.Material,
		result.Description,
		result.Category,
		result.Subcategory,
		result.Grade,
		result.Corrections(),
		result.Fallbacks(),
		traceJSON,
		r.model,
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Classification, error) {
		cl, err := repository.QueryOne(ctx, tx, upsertQ, upsertArgs, scanClassification)
		if err != nil {
			return Classification{}, fmt.Errorf("upsert classification: %w", err)
		}
		return cl, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("material classified",
		"id", c.ID,
		"material", c.Material,
		"category", c.Category,
		"subcategory", c.Subcategory,
		"grade", c.Grade,
	)
	return &c, nil
}
