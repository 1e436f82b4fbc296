// Package testutil provides record fixtures and assertions for tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tree-builder/pkg/compression"
)

// MenuRecords returns a small menu table: two roots, a three level branch
// and one orphan whose parent is missing.
//
//	1 System
//	    2 Users
//	        5 Audit
//	    3 Roles
//	4 Reports
//	6 Orphan (parent 99)
func MenuRecords() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "System"},
		{"id": 2, "pid": 1, "name": "Users"},
		{"id": 3, "pid": 1, "name": "Roles"},
		{"id": 4, "name": "Reports"},
		{"id": 5, "pid": 2, "name": "Audit"},
		{"id": 6, "pid": 99, "name": "Orphan"},
	}
}

// MenuForest is the nesting MenuRecords builds into, in ForestString form.
const MenuForest = "1(2(5) 3) 4 6"

// WriteRecords writes records to dir/name and returns the path. A .yaml or
// .yml name is written as YAML, anything else as JSON; a trailing .gz or
// .zst compresses the file.
func WriteRecords(t *testing.T, dir, name string, records []map[string]any) string {
	t.Helper()

	plain := name
	ct := compression.TypeFromPath(name)
	if ct != compression.TypeNone {
		plain = name[:len(name)-len(ct.Extension())]
	}

	var (
		data []byte
		err  error
	)
	switch filepath.Ext(plain) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(records)
	default:
		data, err = json.Marshal(records)
	}
	if err != nil {
		t.Fatalf("failed to encode records: %v", err)
	}

	if ct != compression.TypeNone {
		if data, err = compression.Compress(data, ct, compression.LevelDefault); err != nil {
			t.Fatalf("failed to compress records: %v", err)
		}
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write records file: %v", err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}
