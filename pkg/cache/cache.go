// Package cache provides a key/value cache with a Redis implementation.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/assay/pkg/lifecycle"
)

// ErrMiss indicates the key is not cached.
var ErrMiss = errors.New("cache miss")

// System manages cached values and lifecycle coordination.
type System interface {
	// Start registers a startup ping and a shutdown close with the coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Get returns the value at key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key with the configured TTL.
	Set(ctx context.Context, key, value string) error
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Redis-backed cache from the given configuration.
// It parses the URL and builds the client but does not connect until used.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	return &redisCache{
		client: redis.NewClient(opts),
		prefix: cfg.Prefix,
		ttl:    cfg.TTLDuration(),
		logger: logger.With("system", "cache"),
	}, nil
}

func (r *redisCache) Start(lc *lifecycle.Coordinator) error {
	r.logger.Info("starting cache")

	lc.Check("cache", func(ctx context.Context) error {
		return r.client.Ping(ctx).Err()
	})

	lc.OnStartup(func() {
		pingCtx, cancel := context.WithTimeout(lc.Context(), 5*time.Second)
		defer cancel()

		if err := r.client.Ping(pingCtx).Err(); err != nil {
			r.logger.Error("cache ping failed", "error", err)
			return
		}

		r.logger.Info("cache connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		if err := r.client.Close(); err != nil {
			r.logger.Error("cache close failed", "error", err)
			return
		}

		r.logger.Info("cache connection closed")
	})

	return nil
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

func (r *redisCache) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
