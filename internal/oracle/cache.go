package oracle

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/JaimeStill/assay/pkg/cache"
)

// Store is the subset of cache.System used to memoize descriptions.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// CachedDescriber memoizes descriptions by normalized material name.
// Cache failures are logged and bypassed; they never fail a description.
type CachedDescriber struct {
	next   Describer
	store  Store
	logger *slog.Logger
}

// NewCachedDescriber wraps next with a read-through cache.
func NewCachedDescriber(next Describer, store Store, logger *slog.Logger) *CachedDescriber {
	return &CachedDescriber{
		next:   next,
		store:  store,
		logger: logger.With("system", "description-cache"),
	}
}

func (c *CachedDescriber) Describe(ctx context.Context, material string) (string, error) {
	key := descriptionKey(material)

	cached, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.DebugContext(ctx, "description cache hit", "material", material)
		return cached, nil
	case !errors.Is(err, cache.ErrMiss):
		c.logger.WarnContext(ctx, "description cache read failed", "material", material, "error", err)
	}

	desc, err := c.next.Describe(ctx, material)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, desc); err != nil {
		c.logger.WarnContext(ctx, "description cache write failed", "material", material, "error", err)
	}

	return desc, nil
}

func descriptionKey(material string) string {
	return "describe:" + strings.ToLower(strings.Join(strings.Fields(material), " "))
}
