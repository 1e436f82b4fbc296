// Package storage provides object storage for record inputs and built forests.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload stores everything read from reader under key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download opens the object at key. A missing object is a NOT_FOUND error.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Deleting a missing object succeeds.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where key lives, as a path or URL.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
	StorageTypeS3    StorageType = "s3"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	case StorageTypeS3:
		return NewS3Storage(&S3Config{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.SecretID,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return apperrors.New(apperrors.CodeConfigError, "storage config is nil")
	}

	storageType := StorageType(cfg.Type)
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	switch storageType {
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return apperrors.New(apperrors.CodeConfigError, "local storage path is required")
		}
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS bucket is required")
		}
		if cfg.Region == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS credentials are required")
		}
	case StorageTypeS3:
		if cfg.Endpoint == "" {
			return apperrors.New(apperrors.CodeConfigError, "S3 endpoint is required")
		}
		if cfg.Bucket == "" {
			return apperrors.New(apperrors.CodeConfigError, "S3 bucket is required")
		}
	default:
		return apperrors.Newf(apperrors.CodeConfigError, "unsupported storage type: %s", cfg.Type)
	}

	return nil
}

func storageError(op, key string, err error) error {
	return apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("%s %s", op, key), err)
}

func notFound(key string) error {
	return apperrors.Newf(apperrors.CodeNotFound, "object not found: %s", key)
}

// ContentType returns the media type uploads of key are stored with, judged
// by the suffixes the writers produce.
func ContentType(key string) string {
	switch ext := strings.ToLower(path.Ext(key)); ext {
	case ".gz":
		return "application/gzip"
	case ".zst", ".zstd":
		return "application/zstd"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
