package source

import (
	"context"

	"github.com/tree-builder/internal/repository"
	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
)

// TypeDatabase is the source type constant for database tables.
const TypeDatabase Type = "database"

func init() {
	Register(TypeDatabase, func(cfg *config.SourceConfig, deps Deps) (Source, error) {
		return NewDatabaseSource(deps.Records, repository.Query{
			Table:   cfg.Table,
			Where:   cfg.Where,
			OrderBy: cfg.OrderBy,
		})
	})
}

// DatabaseSource reads the rows of one table.
type DatabaseSource struct {
	repo  repository.RecordRepository
	query repository.Query
}

// NewDatabaseSource creates a DatabaseSource.
func NewDatabaseSource(repo repository.RecordRepository, query repository.Query) (*DatabaseSource, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "database source requires a record repository")
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return &DatabaseSource{repo: repo, query: query}, nil
}

// Type returns TypeDatabase.
func (s *DatabaseSource) Type() Type { return TypeDatabase }

// Name returns the table name.
func (s *DatabaseSource) Name() string { return s.query.Table }

// Load queries the table.
func (s *DatabaseSource) Load(ctx context.Context) ([]map[string]any, error) {
	return s.repo.ListRecords(ctx, s.query)
}
