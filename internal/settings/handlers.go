package settings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-catalogue/internal/common"
)

// Only a subset of settings is readable without authentication.
var publicKeys = map[string]struct{}{
	KeySiteLogo:     {},
	KeySiteWhatsApp: {},
}

// Handler exposes settings endpoints.
type Handler struct {
	Store Store
}

// NewHandler constructs a Handler.
func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

// Get handles GET /api/v1/settings/{key}, restricted to public keys.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if _, ok := publicKeys[key]; !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "setting not found", nil)
		return
	}
	h.respond(w, r, key)
}

// AdminGet handles GET /api/v1/admin/settings/{key} without the public
// allowlist.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, strings.TrimSpace(chi.URLParam(r, "key")))
}

// AdminPut handles PUT /api/v1/admin/settings/{key}.
func (h *Handler) AdminPut(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "setting key is required", nil)
		return
	}
	var payload struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	setting, err := h.Store.Put(r.Context(), key, payload.Value)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to store setting", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": setting})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, key string) {
	setting, err := h.Store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "setting not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load setting", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": setting})
}
