// Package mock provides testify mocks for the storage and repository
// interfaces.
package mock

import (
	"bytes"
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the Storage interface.
type MockStorage struct {
	mock.Mock
}

// Upload mocks the Upload method. The reader is drained and its bytes are
// recorded as the call's third argument.
func (m *MockStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

// Download mocks the Download method.
func (m *MockStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// GetURL returns a fixed mock URL for key.
func (m *MockStorage) GetURL(key string) string {
	return "mock://" + key
}

// ExpectUpload sets up an expectation for Upload of any content.
func (m *MockStorage) ExpectUpload(key string, err error) *mock.Call {
	return m.On("Upload", mock.Anything, key, mock.Anything).Return(err)
}

// ExpectDownload sets up an expectation for Download returning data.
func (m *MockStorage) ExpectDownload(key string, data []byte) *mock.Call {
	return m.On("Download", mock.Anything, key).Return(io.NopCloser(bytes.NewReader(data)), nil)
}

// ExpectDownloadError sets up an expectation for a failing Download.
func (m *MockStorage) ExpectDownloadError(key string, err error) *mock.Call {
	return m.On("Download", mock.Anything, key).Return(nil, err)
}

// Uploaded returns the bytes passed to the last Upload of key, or nil.
func (m *MockStorage) Uploaded(key string) []byte {
	var data []byte
	for _, call := range m.Calls {
		if call.Method == "Upload" && call.Arguments.String(1) == key {
			data = call.Arguments.Get(2).([]byte)
		}
	}
	return data
}
