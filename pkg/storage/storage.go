// Package storage reads and writes taxonomy source files in Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"github.com/JaimeStill/assay/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that ensures the container exists and a
	// readiness check against it.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

type azure struct {
	container *container.Client
	name      string
	logger    *slog.Logger
}

// New creates a storage system from the given configuration.
// The client is built from the connection string; no request is made until
// Start or the first operation.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	svc, err := service.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		container: svc.NewContainerClient(cfg.ContainerName),
		name:      cfg.ContainerName,
		logger:    logger.With("system", "storage", "container", cfg.ContainerName),
	}, nil
}

// Start ensures the container exists during startup and reports it through
// the "storage" readiness check.
func (a *azure) Start(lc *lifecycle.Coordinator) error {
	lc.Check("storage", func(ctx context.Context) error {
		_, err := a.container.GetProperties(ctx, nil)
		return err
	})

	lc.OnStartup(func() {
		if err := a.ensureContainer(lc.Context()); err != nil {
			a.logger.Error("storage container unavailable", "error", err)
			return
		}
		a.logger.Info("storage container ready")
	})
	return nil
}

func (a *azure) ensureContainer(ctx context.Context) error {
	_, err := a.container.Create(ctx, nil)
	if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return err
}

func (a *azure) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := a.ensureContainer(ctx); err != nil {
		return fmt.Errorf("ensure container %s: %w", a.name, err)
	}

	_, err := a.container.NewBlockBlobClient(key).UploadStream(ctx, reader, &blockblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	a.logger.Info("blob uploaded", "key", key, "content_type", contentType)
	return nil
}

func (a *azure) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.container.NewBlobClient(key).DownloadStream(ctx, nil)
	switch {
	case missing(err):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case err != nil:
		return nil, fmt.Errorf("download blob %s: %w", key, err)
	}
	return resp.Body, nil
}

func (a *azure) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	_, err := a.container.NewBlobClient(key).GetProperties(ctx, nil)
	switch {
	case missing(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check blob %s: %w", key, err)
	}
	return true, nil
}

func missing(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound)
}

// validateKey rejects empty keys and keys with a ".." path segment.
func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if slices.Contains(strings.Split(key, "/"), "..") {
		return ErrInvalidKey
	}
	return nil
}
