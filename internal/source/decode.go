package source

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tree-builder/pkg/compression"
	apperrors "github.com/tree-builder/pkg/errors"
)

// Record file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath guesses the record format from a file name, looking past a
// compression suffix. Unknown extensions are read as JSON.
func FormatFromPath(path string) string {
	name := strings.ToLower(path)
	if t := compression.TypeFromPath(name); t != compression.TypeNone {
		name = strings.TrimSuffix(name, t.Extension())
	}
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a list of records. data may be gzip or zstd compressed;
// the compression is detected from its magic bytes. The document must be a
// list whose every element is an object.
func Decode(data []byte, format string) ([]map[string]any, error) {
	data, err := compression.AutoDecompress(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to decompress records", err)
	}

	var records []map[string]any
	switch strings.ToLower(format) {
	case "", FormatJSON:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to parse JSON records", err)
		}
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to parse YAML records", err)
		}
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigError, "unsupported source format: %s", format)
	}

	for i, r := range records {
		if r == nil {
			return nil, apperrors.Newf(apperrors.CodeParseError, "record %d is not an object", i)
		}
	}
	return records, nil
}
