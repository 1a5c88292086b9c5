package classifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/assay/pkg/handlers"
	"github.com/JaimeStill/assay/pkg/pagination"
	"github.com/JaimeStill/assay/pkg/routes"
)

// Handler provides HTTP endpoints for classification operations.
type Handler struct {
	sys    System
	logger *slog.Logger
	opts   Options
}

// NewHandler creates a Handler with the given system, logger, and request bounds.
func NewHandler(sys System, logger *slog.Logger, opts Options) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "classifications"),
		opts:   opts,
	}
}

// Routes returns the route group definition for classification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/classifications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Classify},
			{Method: "POST", Pattern: "/batch", Handler: h.ClassifyBatch},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of classifications with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.opts.Pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single classification by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Classify runs the workflow for the material in a ClassifyCommand JSON body.
// Returns 201 with the recorded classification on success.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var cmd ClassifyCommand
	if err := h.decode(w, r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	c, err := h.sys.Classify(r.Context(), cmd.Material)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, c)
}

// ClassifyBatch runs the workflow for every material in a BatchCommand JSON body.
// Individual failures are reported per outcome; the response is 200 whenever
// the batch itself was accepted.
func (h *Handler) ClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var cmd BatchCommand
	if err := h.decode(w, r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	outcomes, err := h.sys.ClassifyBatch(r.Context(), cmd.Materials)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcomes)
}

// Delete removes a classification by its UUID path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body bounded by MaxBodySize. Syntax errors are
// reported as invalid input.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := r.Body
	if h.opts.MaxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodySize)
	}

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}
