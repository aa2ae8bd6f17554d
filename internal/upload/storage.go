package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnsupportedType indicates the file extension is not allowed.
var ErrUnsupportedType = errors.New("upload: unsupported file type")

// ErrTooLarge indicates the file exceeds the configured size cap.
var ErrTooLarge = errors.New("upload: file too large")

var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {},
	".mp4": {}, ".webm": {},
	".pdf": {},
}

// Stored describes a persisted upload.
type Stored struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// DiskStorage writes uploads under Dir and serves them under BaseURL.
type DiskStorage struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
	Now      func() time.Time
}

// Save streams the multipart file to disk under a collision-free name.
// The original extension is kept so the file server sets a sensible
// content type.
func (d *DiskStorage) Save(file multipart.File, header *multipart.FileHeader) (Stored, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return Stored{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if d.MaxBytes > 0 && header.Size > d.MaxBytes {
		return Stored{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, header.Size)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("upload: create dir: %w", err)
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	name := fmt.Sprintf("%d-%s%s", now().UnixMilli(), uuid.NewString()[:8], ext)
	path := filepath.Join(d.Dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Stored{}, fmt.Errorf("upload: create file: %w", err)
	}
	defer dst.Close()

	limit := io.Reader(file)
	if d.MaxBytes > 0 {
		limit = io.LimitReader(file, d.MaxBytes+1)
	}
	written, err := io.Copy(dst, limit)
	if err != nil {
		os.Remove(path)
		return Stored{}, fmt.Errorf("upload: write file: %w", err)
	}
	if d.MaxBytes > 0 && written > d.MaxBytes {
		os.Remove(path)
		return Stored{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, written)
	}

	base := strings.TrimSuffix(d.BaseURL, "/")
	return Stored{Name: name, URL: base + "/" + name, Size: written}, nil
}
