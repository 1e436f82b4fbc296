// Package writer serializes built forests as JSON, optionally compressed.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tree-builder/pkg/compression"
)

// Writer serializes a value of type T.
type Writer[T any] interface {
	Write(data T, w io.Writer) error
	WriteToFile(data T, path string) error
	// Extension is the file suffix matching the output, e.g. ".json.gz".
	Extension() string
}

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile writes the data as JSON to a file.
func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	return writeFile(path, func(f io.Writer) error {
		return w.Write(data, f)
	})
}

// Extension returns ".json".
func (w *JSONWriter[T]) Extension() string {
	return ".json"
}

// CompressedWriter writes data as compressed JSON.
type CompressedWriter[T any] struct {
	Type  compression.Type
	Level compression.Level
}

// NewGzipWriter creates a gzip writer with default compression.
func NewGzipWriter[T any]() *CompressedWriter[T] {
	return &CompressedWriter[T]{Type: compression.TypeGzip, Level: compression.LevelDefault}
}

// NewZstdWriter creates a zstd writer with default compression.
func NewZstdWriter[T any]() *CompressedWriter[T] {
	return &CompressedWriter[T]{Type: compression.TypeZstd, Level: compression.LevelDefault}
}

// Write writes the data as compressed JSON to the writer.
func (w *CompressedWriter[T]) Write(data T, writer io.Writer) error {
	cw, err := compression.NewWriter(writer, w.Type, w.Level)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(cw).Encode(data); err != nil {
		_ = cw.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}
	return cw.Close()
}

// WriteToFile writes the data as compressed JSON to a file.
func (w *CompressedWriter[T]) WriteToFile(data T, path string) error {
	return writeFile(path, func(f io.Writer) error {
		return w.Write(data, f)
	})
}

// Extension returns ".json" plus the codec suffix.
func (w *CompressedWriter[T]) Extension() string {
	return ".json" + w.Type.Extension()
}

// WriteResult contains statistics about the written file.
type WriteResult struct {
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// WriteToFileWithStats writes and returns statistics about the output.
func (w *CompressedWriter[T]) WriteToFileWithStats(data T, path string) (*WriteResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	jsonSize := int64(len(jsonData))

	compressed, err := compression.Compress(jsonData, w.Type, w.Level)
	if err != nil {
		return nil, err
	}
	if err := writeFile(path, func(f io.Writer) error {
		_, err := f.Write(compressed)
		return err
	}); err != nil {
		return nil, err
	}

	compressedSize := int64(len(compressed))
	compressionPct := 0.0
	if jsonSize > 0 {
		compressionPct = float64(compressedSize) / float64(jsonSize) * 100
	}

	return &WriteResult{
		JSONSize:       jsonSize,
		CompressedSize: compressedSize,
		CompressionPct: compressionPct,
	}, nil
}

// New returns the writer for an output format: "json", "gzip" or "zstd".
func New[T any](format string, pretty bool) (Writer[T], error) {
	switch format {
	case "json":
		if pretty {
			return NewPrettyJSONWriter[T](), nil
		}
		return NewJSONWriter[T](), nil
	case "gzip":
		return NewGzipWriter[T](), nil
	case "zstd":
		return NewZstdWriter[T](), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
