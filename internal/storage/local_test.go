package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tree-builder/pkg/errors"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("CreatesBaseDirectory", func(t *testing.T) {
		basePath := filepath.Join(t.TempDir(), "storage")

		storage, err := NewLocalStorage(basePath)
		require.NoError(t, err)
		assert.Equal(t, basePath, storage.GetBasePath())

		info, err := os.Stat(basePath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("BaseIsAFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "occupied")
		require.NoError(t, os.WriteFile(file, nil, 0644))

		_, err := NewLocalStorage(filepath.Join(file, "sub"))
		assert.Equal(t, apperrors.CodeStorageError, apperrors.GetErrorCode(err))
	})
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := []byte(`[{"id":1},{"id":2,"parent":1}]`)
	require.NoError(t, storage.Upload(ctx, "inputs/menus.json", bytes.NewReader(content)))

	exists, err := storage.Exists(ctx, "inputs/menus.json")
	require.NoError(t, err)
	assert.True(t, exists)

	reader, err := storage.Download(ctx, "inputs/menus.json")
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	require.NoError(t, storage.Upload(ctx, "inputs/menus.json", bytes.NewReader([]byte("[]"))))
	reader2, err := storage.Download(ctx, "inputs/menus.json")
	require.NoError(t, err)
	defer reader2.Close()
	data, err = io.ReadAll(reader2)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data), "upload replaces existing content")

	require.NoError(t, storage.Delete(ctx, "inputs/menus.json"))
	exists, err = storage.Exists(ctx, "inputs/menus.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_Download_NotFound(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.Download(context.Background(), "missing.json")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLocalStorage_Delete_Missing(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, storage.Delete(context.Background(), "never/written.json"))
}

func TestLocalStorage_KeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	storage, err := NewLocalStorage(filepath.Join(base, "store"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, storage.Upload(ctx, "../escape.json", bytes.NewReader([]byte("{}"))))
	_, err = os.Stat(filepath.Join(base, "escape.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "store", "escape.json"))
	assert.NoError(t, err)

	err = storage.Upload(ctx, "/", bytes.NewReader(nil))
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetErrorCode(err))
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, storage.Upload(ctx, "a.json", bytes.NewReader(nil)), context.Canceled)
	_, err = storage.Download(ctx, "a.json")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = storage.Exists(ctx, "a.json")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, storage.Delete(ctx, "a.json"), context.Canceled)
}

func TestLocalStorage_GetURL(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(storage.GetBasePath(), "trees", "out.json"), storage.GetURL("trees/out.json"))
}
