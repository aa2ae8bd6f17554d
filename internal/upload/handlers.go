package upload

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-catalogue/internal/common"
	"github.com/noah-isme/backend-catalogue/internal/obs"
)

// Handler accepts multipart uploads from the admin console.
type Handler struct {
	Storage  *DiskStorage
	MaxBytes int64
}

// Create handles POST /api/v1/admin/uploads. The request carries a single
// "file" part.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+1<<20)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "file part is required", nil)
		return
	}
	defer file.Close()

	stored, err := h.Storage.Save(file, header)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if obs.UploadBytesTotal != nil {
		obs.UploadBytesTotal.Add(float64(stored.Size))
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": stored})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		common.JSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", "file type not allowed", nil)
	case errors.Is(err, ErrTooLarge):
		common.JSONError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the size limit", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
