package source

import (
	"context"
	"os"

	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
)

// TypeFile is the source type constant for record files.
const TypeFile Type = "file"

func init() {
	Register(TypeFile, func(cfg *config.SourceConfig, _ Deps) (Source, error) {
		return NewFileSource(cfg.Path, cfg.Format)
	})
}

// FileSource reads records from a local JSON or YAML file.
type FileSource struct {
	path   string
	format string
}

// NewFileSource creates a FileSource. An empty format is guessed from path.
func NewFileSource(path, format string) (*FileSource, error) {
	if path == "" {
		return nil, apperrors.New(apperrors.CodeConfigError, "source path is required for file sources")
	}
	if format == "" {
		format = FormatFromPath(path)
	}
	return &FileSource{path: path, format: format}, nil
}

// Type returns TypeFile.
func (s *FileSource) Type() Type { return TypeFile }

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "record file not found: %s", s.path)
		}
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to read "+s.path, err)
	}
	return Decode(data, s.format)
}
