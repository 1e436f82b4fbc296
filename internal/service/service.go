// Package service wires sources, the tree builder, writers and storage into
// build runs.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tree-builder/internal/repository"
	"github.com/tree-builder/internal/source"
	"github.com/tree-builder/internal/storage"
	"github.com/tree-builder/pkg/config"
	"github.com/tree-builder/pkg/utils"
)

// Service runs tree builds.
type Service struct {
	config *config.Config
	logger utils.Logger
	clock  utils.Clock

	mu      sync.Mutex
	db      *repository.Repositories
	records repository.RecordRepository
	storage storage.Storage

	outMu  sync.Mutex
	stdout io.Writer
}

// Option configures a Service.
type Option func(*Service)

// WithStorage sets the storage backend instead of building one from config.
func WithStorage(s storage.Storage) Option {
	return func(svc *Service) {
		svc.storage = s
	}
}

// WithRecordRepository sets the record repository instead of opening the
// configured database.
func WithRecordRepository(r repository.RecordRepository) Option {
	return func(svc *Service) {
		svc.records = r
	}
}

// WithOutput sets where builds without an output path are written.
// Default: os.Stdout
func WithOutput(w io.Writer) Option {
	return func(svc *Service) {
		svc.stdout = w
	}
}

// WithClock sets the clock used for timings and timestamps.
func WithClock(c utils.Clock) Option {
	return func(svc *Service) {
		svc.clock = c
	}
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	svc := &Service{
		config: cfg,
		logger: logger,
		clock:  utils.NewRealClock(),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// newSource creates the source for cfg, connecting the database or storage
// on first use.
func (s *Service) newSource(cfg *config.SourceConfig) (source.Source, error) {
	var deps source.Deps
	switch cfg.Type {
	case config.SourceDatabase:
		repo, err := s.recordRepository()
		if err != nil {
			return nil, err
		}
		deps.Records = repo
	case config.SourceStorage:
		store, err := s.objectStorage()
		if err != nil {
			return nil, err
		}
		deps.Storage = store
	}
	return source.New(cfg, deps)
}

func (s *Service) recordRepository() (repository.RecordRepository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records != nil {
		return s.records, nil
	}

	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)
	gormDB, err := repository.NewGormDB(&s.config.Database, s.config.Telemetry.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = repository.NewRepositories(gormDB)
	s.records = s.db.Records
	s.logger.Info("Database connection established")

	return s.records, nil
}

func (s *Service) objectStorage() (storage.Storage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		return s.storage, nil
	}

	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)
	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.storage = store

	return s.storage, nil
}

// writeStdout writes one build's whole output at once so that concurrent
// builds do not interleave.
func (s *Service) writeStdout(data []byte) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, err := s.stdout.Write(data)
	return err
}

// Close releases the database connection, if one was opened.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.records = nil
	return err
}

// HealthCheck pings the database, if one was opened.
func (s *Service) HealthCheck(ctx context.Context) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()

	if db == nil {
		return nil
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
