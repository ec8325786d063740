package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow/product-service/internal/tenant"
)

// MaxUploadSize is the hard cap on a product image.
const MaxUploadSize = 5 * 1024 * 1024

// ErrInvalidImage is returned when the primary image fails the type or size
// constraint. The whole commit aborts before any remote write happens.
var ErrInvalidImage = errors.New("invalid image format or size")

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// ObjectStore is the remote object storage boundary.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PublicURL(key string) string
}

type Uploader struct {
	store ObjectStore
}

func NewUploader(store ObjectStore) *Uploader {
	return &Uploader{store: store}
}

// UploadPrimary validates and uploads one staged image, returning its public
// URL. Constraint failures return ErrInvalidImage without touching the store.
func (u *Uploader) UploadPrimary(ctx context.Context, t tenant.Context, img StagedImage) (string, error) {
	if !allowedTypes[img.ContentType] || img.Size > MaxUploadSize {
		return "", ErrInvalidImage
	}
	key := ObjectKey(t, img.Name)
	if err := u.store.Upload(ctx, key, bytes.NewReader(img.Data), img.ContentType); err != nil {
		return "", fmt.Errorf("upload primary image: %w", err)
	}
	return u.store.PublicURL(key), nil
}

// ObjectKey derives a collision-safe storage key from the tenant, the upload
// time and a short random suffix.
func ObjectKey(t tenant.Context, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return fmt.Sprintf("%s/%d_%s.%s", t.UserID, time.Now().UnixMilli(), suffix, ext)
}
