package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
)

func TestNewCOSStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     COSConfig
		message string
	}{
		{"MissingBucket", COSConfig{Region: "ap-guangzhou", SecretID: "id", SecretKey: "key"}, "bucket and region are required"},
		{"MissingRegion", COSConfig{Bucket: "trees", SecretID: "id", SecretKey: "key"}, "bucket and region are required"},
		{"MissingCredentials", COSConfig{Bucket: "trees", Region: "ap-guangzhou"}, "credentials are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewCOSStorage(&tt.cfg)
			require.Error(t, err)
			assert.Nil(t, storage)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCOSStorage_GetURL(t *testing.T) {
	storage, err := NewCOSStorage(&COSConfig{
		Bucket:    "trees",
		Region:    "ap-guangzhou",
		SecretID:  "id",
		SecretKey: "key",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://trees.cos.ap-guangzhou.myqcloud.com/out/menus.json", storage.GetURL("out/menus.json"))
}

func TestNewStorage(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		storage, err := NewStorage(&config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStorage{}, storage)
	})

	t.Run("EmptyTypeIsLocal", func(t *testing.T) {
		storage, err := NewStorage(&config.StorageConfig{LocalPath: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStorage{}, storage)
	})

	t.Run("COS", func(t *testing.T) {
		storage, err := NewStorage(&config.StorageConfig{
			Type:      "cos",
			Bucket:    "trees",
			Region:    "ap-guangzhou",
			SecretID:  "id",
			SecretKey: "key",
		})
		require.NoError(t, err)
		assert.IsType(t, &COSStorage{}, storage)
	})

	t.Run("S3", func(t *testing.T) {
		storage, err := NewStorage(&config.StorageConfig{
			Type:      "s3",
			Bucket:    "trees",
			Endpoint:  "minio.local:9000",
			SecretID:  "minioadmin",
			SecretKey: "minioadmin",
		})
		require.NoError(t, err)
		assert.IsType(t, &S3Storage{}, storage)
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		message string
	}{
		{"NilConfig", nil, "storage config is nil"},
		{"UnknownType", &config.StorageConfig{Type: "gcs"}, "unsupported storage type"},
		{"LocalMissingPath", &config.StorageConfig{Type: "local"}, "local storage path is required"},
		{"COSMissingBucket", &config.StorageConfig{Type: "cos", Region: "r", SecretID: "i", SecretKey: "k"}, "COS bucket is required"},
		{"COSMissingRegion", &config.StorageConfig{Type: "cos", Bucket: "b", SecretID: "i", SecretKey: "k"}, "COS region is required"},
		{"COSMissingCredentials", &config.StorageConfig{Type: "cos", Bucket: "b", Region: "r"}, "COS credentials are required"},
		{"S3MissingEndpoint", &config.StorageConfig{Type: "s3", Bucket: "b"}, "S3 endpoint is required"},
		{"S3MissingBucket", &config.StorageConfig{Type: "s3", Endpoint: "e:9000"}, "S3 bucket is required"},
		{"ValidLocal", &config.StorageConfig{Type: "local", LocalPath: "/tmp/storage"}, ""},
		{"ValidCOS", &config.StorageConfig{Type: "cos", Bucket: "b", Region: "r", SecretID: "i", SecretKey: "k"}, ""},
		{"ValidS3", &config.StorageConfig{Type: "s3", Bucket: "b", Endpoint: "e:9000"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
		})
	}
}
