package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-catalogue/internal/common"
)

// AdminHandler exposes the authenticated catalogue management endpoints.
type AdminHandler struct {
	service  *Service
	validate *validator.Validate
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service, validate: validator.New()}
}

// Products handles GET /api/v1/admin/products, inactive included.
func (h *AdminHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.AdminListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// CreateProduct handles POST /api/v1/admin/products.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": product})
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}. Products are
// deactivated rather than removed.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deactivated": true}})
}

// CreateCategory handles POST /api/v1/admin/categories.
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeCategory(w, r)
	if !ok {
		return
	}
	category, err := h.service.CreateCategory(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": category})
}

// UpdateCategory handles PUT /api/v1/admin/categories/{id}.
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeCategory(w, r)
	if !ok {
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": category})
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{id}.
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *AdminHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return input, false
	}
	if err := h.validate.Struct(input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid product payload", validationDetails(err))
		return input, false
	}
	for _, tier := range input.Pricing {
		if tier.MinQty < 1 || tier.Price < 0 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid pricing tier",
				map[string]any{"field": "pricing"})
			return input, false
		}
	}
	return input, true
}

func (h *AdminHandler) decodeCategory(w http.ResponseWriter, r *http.Request) (CategoryInput, bool) {
	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return input, false
	}
	if err := h.validate.Struct(input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid category payload", validationDetails(err))
		return input, false
	}
	return input, true
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errorsAsValidation(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return map[string]any{"fields": fields}
}

func errorsAsValidation(err error, target *validator.ValidationErrors) bool {
	if v, ok := err.(validator.ValidationErrors); ok {
		*target = v
		return true
	}
	return false
}
