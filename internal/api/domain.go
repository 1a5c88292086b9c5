package api

import (
	"github.com/JaimeStill/assay/internal/classifications"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Classifications classifications.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	classificationsSystem := classifications.New(
		runtime.Database.Connection(),
		runtime.Workflow,
		runtime.Model,
		runtime.Logger,
		classifications.Options{
			Pagination:   runtime.API.Pagination,
			MaxBatchSize: runtime.API.MaxBatchSize,
			Concurrency:  runtime.Parallel,
			MaxBodySize:  runtime.API.MaxBodySizeBytes(),
		},
	)

	return &Domain{
		Classifications: classificationsSystem,
	}
}
