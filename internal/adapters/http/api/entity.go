// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nvara/tally/internal/adapters/resultstore"
	"github.com/nvara/tally/internal/domain/model"
)

// EntityDependencies defines the interface for single-entity lookups.
type EntityDependencies interface {
	Entity(ctx context.Context, id string) (model.RankedEntity, error)
}

// EntityHandler handles single-entity score lookups.
type EntityHandler struct {
	deps EntityDependencies
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps EntityDependencies) *EntityHandler {
	return &EntityHandler{deps: deps}
}

// HandleGetEntity handles GET /entities/{id} requests.
func (h *EntityHandler) HandleGetEntity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/entities/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, ErrBadRequest.Error())
		return
	}

	entry, err := h.deps.Entity(r.Context(), id)
	switch {
	case errors.Is(err, resultstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "entity not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
