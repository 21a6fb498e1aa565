// Package storage keeps uploaded template logos either in a MinIO bucket or
// in a local directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dealflow/dealflow/internal/config"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ErrUnsupportedType is returned for uploads that are not PNG or JPEG images.
var ErrUnsupportedType = errors.New("unsupported file type")

// ObjectStore is the minimal blob API used for template logos.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New returns a MinIO store when an endpoint is configured, else a local one.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	if cfg.UseMinio() {
		return NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return NewLocalStore(cfg.Dir)
}

// ContentType maps a logo file extension to its MIME type.
func ContentType(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
}

// LogoKey builds a unique object key for a template logo.
func LogoKey(templateID uint, filename string) string {
	return fmt.Sprintf("logos/template_%d_%s%s", templateID, uuid.NewString()[:8], strings.ToLower(filepath.Ext(filename)))
}
