package agent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-catalogue/internal/common"
)

// Handler exposes agent endpoints. GetBySlug is public, the rest sit behind
// admin auth.
type Handler struct {
	Store    Store
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(store Store) *Handler {
	return &Handler{Store: store, validate: validator.New()}
}

// GetBySlug handles GET /api/v1/agents/{slug}. Inactive agents are hidden
// from the storefront.
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !a.IsActive {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "agent not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": a})
}

// List handles GET /api/v1/admin/agents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Store.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if agents == nil {
		agents = []Agent{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": agents})
}

// Create handles POST /api/v1/admin/agents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	a, err := h.Store.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": a})
}

// Update handles PUT /api/v1/admin/agents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	a, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": a})
}

// Delete handles DELETE /api/v1/admin/agents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return input, false
	}
	if err := h.validate.Struct(input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid agent payload", nil)
		return input, false
	}
	return input, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "agent not found", nil)
	case errors.Is(err, ErrSlugTaken):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already in use", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
