package repository

import (
	"context"

	"gorm.io/gorm"

	apperrors "github.com/tree-builder/pkg/errors"
)

// GormRecordRepository implements RecordRepository using GORM.
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository.
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// ListRecords returns the rows of q.Table.
func (r *GormRecordRepository) ListRecords(ctx context.Context, q Query) ([]map[string]any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx).Table(q.Table)
	if q.Where != "" {
		tx = tx.Where(q.Where)
	}
	if q.OrderBy != "" {
		tx = tx.Order(q.OrderBy)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []map[string]any
	if err := tx.Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to query "+q.Table, err)
	}

	for _, row := range rows {
		normalizeRow(row)
	}
	return rows, nil
}

// normalizeRow turns driver byte slices into strings so that text ids
// compare equal across rows. Signed integers are widened to int64 because
// drivers scan integer and bigint columns into different types, and a parent
// column must match the id column it points at.
func normalizeRow(row map[string]any) {
	for k, v := range row {
		switch n := v.(type) {
		case []byte:
			row[k] = string(n)
		case int:
			row[k] = int64(n)
		case int8:
			row[k] = int64(n)
		case int16:
			row[k] = int64(n)
		case int32:
			row[k] = int64(n)
		}
	}
}
