package classifications

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/pagination"
)

// Domain errors for classification operations.
var (
	ErrNotFound        = errors.New("classification not found")
	ErrDuplicate       = errors.New("classification already exists")
	ErrInvalidMaterial = errors.New("material is required")
	ErrInvalidBody     = errors.New("invalid request body")
	ErrEmptyBatch      = errors.New("batch contains no materials")
	ErrBatchTooLarge   = errors.New("batch exceeds maximum size")
)

// MapHTTPStatus maps classification and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidMaterial),
		errors.Is(err, ErrInvalidBody),
		errors.Is(err, ErrEmptyBatch),
		errors.Is(err, pagination.ErrInvalidParam):
		return http.StatusBadRequest
	case errors.Is(err, ErrBatchTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, workflow.ErrCancelled):
		return http.StatusServiceUnavailable
	case workflow.IsNotFound(err):
		return http.StatusUnprocessableEntity
	case workflow.IsOracle(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
