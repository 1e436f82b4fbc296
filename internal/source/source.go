// Package source loads flat record lists from files, database tables and
// object storage. Each source type registers a creator in its init function.
package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tree-builder/internal/repository"
	"github.com/tree-builder/internal/storage"
	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
)

// Type identifies a source implementation.
type Type string

// Source yields the records of one build.
type Source interface {
	// Type returns the source type constant defined by the implementation.
	Type() Type

	// Name describes where the records come from, e.g. a path or table.
	Name() string

	// Load reads every record. Each call reads afresh.
	Load(ctx context.Context) ([]map[string]any, error)
}

// Deps carries the shared clients a source may need. Unused fields may be nil.
type Deps struct {
	Records repository.RecordRepository
	Storage storage.Storage
}

// Creator builds a Source from configuration.
type Creator func(cfg *config.SourceConfig, deps Deps) (Source, error)

var (
	registry   = make(map[Type]Creator)
	registryMu sync.RWMutex
)

// Register registers a creator for a source type.
func Register(t Type, creator Creator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = creator
}

// IsRegistered checks if a source type is registered.
func IsRegistered(t Type) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[t]
	return ok
}

// RegisteredTypes returns all registered source types, sorted.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// New creates the Source selected by cfg.Type.
func New(cfg *config.SourceConfig, deps Deps) (Source, error) {
	if cfg == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "source config is nil")
	}

	registryMu.RLock()
	creator, ok := registry[Type(cfg.Type)]
	registryMu.RUnlock()

	if !ok {
		return nil, apperrors.New(apperrors.CodeConfigError,
			fmt.Sprintf("unknown source type: %s (registered types: %v)", cfg.Type, RegisteredTypes()))
	}
	return creator(cfg, deps)
}
