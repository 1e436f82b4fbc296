package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tree-builder/internal/repository"
)

// MockRecordRepository is a mock implementation of the RecordRepository interface.
type MockRecordRepository struct {
	mock.Mock
}

// ListRecords mocks the ListRecords method.
func (m *MockRecordRepository) ListRecords(ctx context.Context, q repository.Query) ([]map[string]any, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]any), args.Error(1)
}

// ExpectListRecords sets up an expectation for ListRecords on table.
func (m *MockRecordRepository) ExpectListRecords(table string, rows []map[string]any, err error) *mock.Call {
	return m.On("ListRecords", mock.Anything, mock.MatchedBy(func(q repository.Query) bool {
		return q.Table == table
	})).Return(rows, err)
}
