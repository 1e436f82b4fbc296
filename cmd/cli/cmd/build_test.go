package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tree-builder/internal/service"
	"github.com/tree-builder/pkg/config"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		input    string
		format   string
		expected string
	}{
		{"menus.json", config.OutputText, "menus.txt"},
		{"data/menus.yaml", config.OutputJSON, "menus.json"},
		{"menus.yaml.gz", config.OutputZstd, "menus.json.zst"},
		{"menus.json.zst", config.OutputGzip, "menus.json.gz"},
		{"menus", "", "menus.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, outputName(tt.input, tt.format))
		})
	}
}

func TestBatchRequests(t *testing.T) {
	base := service.Request{
		Source: config.SourceConfig{Type: config.SourceFile, Path: "a.json"},
		Output: config.OutputConfig{Format: config.OutputGzip, Path: "out", UploadKey: "trees"},
	}

	reqs := batchRequests(base, []string{"a.json", "in/b.yaml"})
	require.Len(t, reqs, 2)

	assert.Equal(t, "in/b.yaml", reqs[1].Name)
	assert.Equal(t, "in/b.yaml", reqs[1].Source.Path)
	assert.Equal(t, filepath.Join("out", "b.json.gz"), reqs[1].Output.Path)
	assert.Equal(t, "trees/b.json.gz", reqs[1].Output.UploadKey)
	assert.Equal(t, "out", base.Output.Path, "base request is left untouched")
}

func TestBatchRequests_Stdout(t *testing.T) {
	base := service.Request{Output: config.OutputConfig{Format: config.OutputText}}

	reqs := batchRequests(base, []string{"a.json", "b.json"})
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Output.Path)
	assert.Empty(t, reqs[0].Output.UploadKey)
}

func TestApplyBuildFlags(t *testing.T) {
	t.Cleanup(func() { inputFiles = nil })

	cfg := config.Default()
	flags := buildCmd.Flags()
	require.NoError(t, flags.Parse([]string{"-i", "menus.json", "--parent", "pid", "--cycles", "keep", "--format", "json", "--pretty"}))
	applyBuildFlags(flags, cfg)

	assert.Equal(t, config.SourceFile, cfg.Source.Type)
	assert.Equal(t, "menus.json", cfg.Source.Path)
	assert.Equal(t, "pid", cfg.Tree.Fields.Parent)
	assert.Equal(t, "id", cfg.Tree.Fields.ID, "unset flags keep the configured value")
	assert.Equal(t, "keep", cfg.Tree.CyclePolicy)
	assert.Equal(t, config.OutputJSON, cfg.Output.Format)
	assert.True(t, cfg.Output.Pretty)
	assert.NoError(t, cfg.Validate())
}
