package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trellisdata/trellis/internal/api/shared"
	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// CatalogHandler serves catalog publishing and instance seeding.
type CatalogHandler struct {
	catalog   store.CatalogStore
	instances store.InstanceStore
	logger    *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler with the given dependencies.
func NewCatalogHandler(
	catalog store.CatalogStore,
	instances store.InstanceStore,
	logger *slog.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		instances: instances,
		logger:    logger.With("component", "catalog_handler"),
	}
}

// ListDefinitions handles GET /api/definitions.
func (h *CatalogHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.catalog.ListDefinitions(r.Context())
	if err != nil {
		h.logger.Error("failed to list definitions", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to read catalog")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, defs)
}

// PublishDefinition handles PUT /api/definitions/{id}. Republishing an
// existing ID overwrites it; it never duplicates.
func (h *CatalogHandler) PublishDefinition(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "definition id required")
		return
	}

	var req DefinitionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	def := &domain.TaskDefinition{
		ID:            taskID,
		InputTemplate: req.InputTemplate,
		OutputFields:  req.OutputFields,
		RunPolicy:     req.RunPolicy,
	}
	if err := h.catalog.UpsertDefinition(r.Context(), def); err != nil {
		h.logger.Error("failed to publish definition", "task_id", taskID, "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to publish definition")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, def)
}

// SeedInstances handles POST /api/seed: create missing pending
// instances for one definition across all imported occupations and regions.
func (h *CatalogHandler) SeedInstances(w http.ResponseWriter, r *http.Request) {
	var req SeedRequest
	if err := decodeAndValidate(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Seeding against an unpublished definition is almost certainly an
	// operator typo; reject it early.
	if _, err := h.catalog.GetDefinition(r.Context(), req.TaskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "unknown task definition")
			return
		}
		h.logger.Error("failed to load definition for seeding", "task_id", req.TaskID, "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to read catalog")
		return
	}

	created, err := h.instances.SeedForDefinition(r.Context(), req.TaskID, req.Priority)
	if err != nil {
		h.logger.Error("failed to seed instances", "task_id", req.TaskID, "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to seed instances")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SeedResponse{Created: created})
}
