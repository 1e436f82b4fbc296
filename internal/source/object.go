package source

import (
	"context"
	"io"

	"github.com/tree-builder/internal/storage"
	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
)

// TypeStorage is the source type constant for objects in storage.
const TypeStorage Type = "storage"

func init() {
	Register(TypeStorage, func(cfg *config.SourceConfig, deps Deps) (Source, error) {
		return NewStorageSource(deps.Storage, cfg.Key, cfg.Format)
	})
}

// StorageSource reads a record file from object storage.
type StorageSource struct {
	store  storage.Storage
	key    string
	format string
}

// NewStorageSource creates a StorageSource. An empty format is guessed
// from key.
func NewStorageSource(store storage.Storage, key, format string) (*StorageSource, error) {
	if store == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "storage source requires a storage backend")
	}
	if key == "" {
		return nil, apperrors.New(apperrors.CodeConfigError, "source key is required for storage sources")
	}
	if format == "" {
		format = FormatFromPath(key)
	}
	return &StorageSource{store: store, key: key, format: format}, nil
}

// Type returns TypeStorage.
func (s *StorageSource) Type() Type { return TypeStorage }

// Name returns the object URL.
func (s *StorageSource) Name() string { return s.store.GetURL(s.key) }

// Load downloads and decodes the object.
func (s *StorageSource) Load(ctx context.Context) ([]map[string]any, error) {
	body, err := s.store.Download(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to read "+s.key, err)
	}
	return Decode(data, s.format)
}
