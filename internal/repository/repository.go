// Package repository loads flat records from SQL tables.
package repository

import (
	"context"
	"regexp"

	apperrors "github.com/tree-builder/pkg/errors"
)

// RecordRepository lists table rows as open records.
type RecordRepository interface {
	// ListRecords returns the rows selected by q, one map per row keyed by
	// column name. Row order follows q.OrderBy, or the database's order when
	// it is empty.
	ListRecords(ctx context.Context, q Query) ([]map[string]any, error)
}

// Query selects the rows of one table.
type Query struct {
	Table   string
	Where   string // raw SQL condition, passed to the database verbatim
	OrderBy string
	Limit   int // zero means no limit
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Validate checks that the table name is a plain, optionally schema
// qualified, identifier.
func (q Query) Validate() error {
	if q.Table == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "table name is required")
	}
	if !identifierPattern.MatchString(q.Table) {
		return apperrors.Newf(apperrors.CodeInvalidInput, "invalid table name: %q", q.Table)
	}
	if q.Limit < 0 {
		return apperrors.Newf(apperrors.CodeInvalidInput, "invalid limit: %d", q.Limit)
	}
	return nil
}
