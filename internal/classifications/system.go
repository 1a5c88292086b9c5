package classifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/assay/pkg/pagination"
)

// System defines the public contract for classification domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Classification], error)

	Find(ctx context.Context, id uuid.UUID) (*Classification, error)
	Classify(ctx context.Context, material string) (*Classification, error)
	ClassifyBatch(ctx context.Context, materials []string) ([]BatchOutcome, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
