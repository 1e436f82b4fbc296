package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tree-builder/internal/mock"
	"github.com/tree-builder/internal/repository"
	"github.com/tree-builder/internal/testutil"
	"github.com/tree-builder/pkg/compression"
	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
	"github.com/tree-builder/pkg/model"
	"github.com/tree-builder/pkg/tree"
	"github.com/tree-builder/pkg/utils"
)

var menuFields = tree.FieldNames{ID: "id", Parent: "pid"}

func newTestService(t *testing.T, opts ...Option) (*Service, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	svc, err := New(config.Default(), &utils.NullLogger{}, append([]Option{WithOutput(&out)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, &out
}

func fileRequest(path string, mode model.Mode, output config.OutputConfig) Request {
	return Request{
		Source: config.SourceConfig{Type: config.SourceFile, Path: path},
		Fields: menuFields,
		Mode:   mode,
		Output: output,
	}
}

func decodeForest(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var forest []map[string]any
	require.NoError(t, json.Unmarshal(data, &forest))
	return forest
}

func TestService_New(t *testing.T) {
	svc, err := New(config.Default(), nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = New(nil, nil)
	assert.Error(t, err)
}

func TestRun_MapModeText(t *testing.T) {
	path := testutil.WriteRecords(t, t.TempDir(), "menus.json", testutil.MenuRecords())
	svc, out := newTestService(t)

	result, err := svc.Run(context.Background(), fileRequest(path, model.ModeMap, config.OutputConfig{Format: config.OutputText}))
	require.NoError(t, err)

	expected := strings.Join([]string{
		"map[id:1 name:System]",
		"    map[id:2 name:Users pid:1]",
		"        map[id:5 name:Audit pid:2]",
		"    map[id:3 name:Roles pid:1]",
		"map[id:4 name:Reports]",
		"map[id:6 name:Orphan pid:99]",
		"",
	}, "\n")
	assert.Equal(t, expected, out.String())

	assert.Equal(t, path, result.Name)
	assert.Equal(t, model.ModeMap, result.Mode)
	assert.Equal(t, model.BuildStats{Records: 6, Roots: 3, Reachable: 6, Depth: 3}, result.Stats)
	assert.Zero(t, result.Stats.Detached())
	assert.Contains(t, result.Timings, "load")
	assert.Contains(t, result.Timings, "write")
	assert.NotContains(t, result.Timings, "upload")
	testutil.AssertForest(t, testutil.MenuForest, result.Forest.([]map[string]any), "id", tree.ChildrenKey)
}

func TestRun_JSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteRecords(t, dir, "menus.yaml", testutil.MenuRecords())
	outPath := filepath.Join(dir, "out", "menus.json")
	svc, out := newTestService(t)

	result, err := svc.Run(context.Background(), fileRequest(path, model.ModeMap, config.OutputConfig{Format: config.OutputJSON, Path: outPath, Pretty: true}))
	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Equal(t, outPath, result.OutputPath)

	forest := decodeForest(t, []byte(testutil.ReadFile(t, outPath)))
	testutil.AssertForest(t, testutil.MenuForest, forest, "id", tree.ChildrenKey)
}

func TestRun_CustomChildrenKey(t *testing.T) {
	path := testutil.WriteRecords(t, t.TempDir(), "menus.json", testutil.MenuRecords())
	svc, out := newTestService(t)

	req := fileRequest(path, model.ModeMap, config.OutputConfig{Format: config.OutputJSON})
	req.Fields.Children = "items"
	_, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	forest := decodeForest(t, out.Bytes())
	testutil.AssertForest(t, testutil.MenuForest, forest, "id", "items")
	assert.NotContains(t, forest[0], tree.ChildrenKey)
}

func TestRun_NodeMode(t *testing.T) {
	path := testutil.WriteRecords(t, t.TempDir(), "menus.json", testutil.MenuRecords())
	svc, out := newTestService(t)

	result, err := svc.Run(context.Background(), fileRequest(path, model.ModeNode, config.OutputConfig{Format: config.OutputText}))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Record{id=1 parent=<nil> name=System}", lines[0])
	assert.Equal(t, "        Record{id=5 parent=2 name=Audit}", lines[2])
	assert.Equal(t, "Record{id=6 parent=99 name=Orphan}", lines[5])

	roots := result.Forest.([]*model.Record)
	require.Len(t, roots, 3)
	assert.Equal(t, "Users", roots[0].Nested[0].Name)
}

func TestRun_FieldsMode(t *testing.T) {
	rows := []map[string]any{
		{"code": "eu", "name": "Europe"},
		{"code": "fr", "region": "eu", "name": "France", "iso": "FR"},
	}
	path := testutil.WriteRecords(t, t.TempDir(), "regions.json", rows)
	svc, out := newTestService(t)

	req := Request{
		Source: config.SourceConfig{Type: config.SourceFile, Path: path},
		Fields: tree.FieldNames{ID: "code", Parent: "region"},
		Mode:   model.ModeFields,
		Output: config.OutputConfig{Format: config.OutputJSON},
	}
	result, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Reachable)

	assert.JSONEq(t,
		`[{"id":"eu","name":"Europe","children":[{"id":"fr","parent":"eu","name":"France","attrs":{"iso":"FR"}}]}]`,
		out.String())
}

func TestRun_CompressedUpload(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteRecords(t, dir, "menus.json", testutil.MenuRecords())
	store := new(mock.MockStorage)
	store.ExpectUpload("trees/menus.json.gz", nil)
	svc, _ := newTestService(t, WithStorage(store))

	outPath := filepath.Join(dir, "menus.json.gz")
	result, err := svc.Run(context.Background(), fileRequest(path, model.ModeMap, config.OutputConfig{
		Format:    config.OutputGzip,
		Path:      outPath,
		UploadKey: "trees/menus.json.gz",
	}))
	require.NoError(t, err)
	assert.Equal(t, "trees/menus.json.gz", result.RemoteKey)
	store.AssertExpectations(t)

	uploaded := store.Uploaded("trees/menus.json.gz")
	assert.Equal(t, compression.TypeGzip, compression.DetectType(uploaded))
	plain, err := compression.AutoDecompress(uploaded)
	require.NoError(t, err)
	testutil.AssertForest(t, testutil.MenuForest, decodeForest(t, plain), "id", tree.ChildrenKey)
}

func TestRun_UploadFromStdout(t *testing.T) {
	path := testutil.WriteRecords(t, t.TempDir(), "menus.json", testutil.MenuRecords())
	store := new(mock.MockStorage)
	store.ExpectUpload("trees/menus.txt", nil)
	svc, out := newTestService(t, WithStorage(store))

	_, err := svc.Run(context.Background(), fileRequest(path, model.ModeMap, config.OutputConfig{
		Format:    config.OutputText,
		UploadKey: "trees/menus.txt",
	}))
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(store.Uploaded("trees/menus.txt")))
}

func TestRun_UploadFailure(t *testing.T) {
	path := testutil.WriteRecords(t, t.TempDir(), "menus.json", testutil.MenuRecords())
	store := new(mock.MockStorage)
	store.ExpectUpload("trees/menus.json", apperrors.New(apperrors.CodeStorageError, "bucket gone"))
	svc, _ := newTestService(t, WithStorage(store))

	_, err := svc.Run(context.Background(), fileRequest(path, model.ModeMap, config.OutputConfig{
		Format:    config.OutputJSON,
		UploadKey: "trees/menus.json",
	}))
	assert.Equal(t, apperrors.CodeStorageError, apperrors.GetErrorCode(err))
}

func TestRun_DatabaseSource(t *testing.T) {
	repo := new(mock.MockRecordRepository)
	repo.ExpectListRecords("sys_menu", []map[string]any{
		{"menu_id": int64(1), "parent_id": nil, "name": "System"},
		{"menu_id": int64(2), "parent_id": int64(1), "name": "Users"},
	}, nil)
	svc, out := newTestService(t, WithRecordRepository(repo))

	req := Request{
		Name:   "menus",
		Source: config.SourceConfig{Type: config.SourceDatabase, Table: "sys_menu", Where: "deleted = 0", OrderBy: "sort"},
		Fields: tree.FieldNames{ID: "menu_id", Parent: "parent_id"},
		Mode:   model.ModeMap,
		Output: config.OutputConfig{Format: config.OutputText},
	}
	result, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	repo.AssertExpectations(t)

	assert.Equal(t, "menus", result.Name)
	assert.Equal(t, "sys_menu", result.Source)
	assert.Equal(t, "map[menu_id:1 name:System parent_id:<nil>]\n    map[menu_id:2 name:Users parent_id:1]\n", out.String())
}

func TestRun_SQLiteSource(t *testing.T) {
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Type: "sqlite", DSN: filepath.Join(t.TempDir(), "menus.db")}

	seed, err := repository.NewGormDB(&cfg.Database, false)
	require.NoError(t, err)
	require.NoError(t, seed.Exec(`CREATE TABLE sys_menu (id INTEGER PRIMARY KEY, pid INTEGER, name TEXT)`).Error)
	require.NoError(t, seed.Exec(`INSERT INTO sys_menu VALUES (1, NULL, 'System'), (2, 1, 'Users'), (3, 2, 'Audit')`).Error)
	require.NoError(t, repository.NewRepositories(seed).Close())

	var out bytes.Buffer
	svc, err := New(cfg, &utils.NullLogger{}, WithOutput(&out))
	require.NoError(t, err)
	defer svc.Close()

	result, err := svc.Run(context.Background(), Request{
		Source: config.SourceConfig{Type: config.SourceDatabase, Table: "sys_menu", OrderBy: "id"},
		Fields: menuFields,
		Mode:   model.ModeNode,
		Output: config.OutputConfig{Format: config.OutputJSON},
	})
	require.NoError(t, err)
	assert.Equal(t, model.BuildStats{Records: 3, Roots: 1, Reachable: 3, Depth: 3}, result.Stats)
	assert.NoError(t, svc.HealthCheck(context.Background()))
	assert.JSONEq(t,
		`[{"id":1,"name":"System","children":[{"id":2,"parent":1,"name":"Users","children":[{"id":3,"parent":2,"name":"Audit"}]}]}]`,
		out.String())
}

func TestRun_StorageSource(t *testing.T) {
	store := new(mock.MockStorage)
	store.ExpectDownload("inputs/menus.yaml", []byte("- id: a\n- id: b\n  pid: a\n"))
	svc, out := newTestService(t, WithStorage(store))

	result, err := svc.Run(context.Background(), Request{
		Source: config.SourceConfig{Type: config.SourceStorage, Key: "inputs/menus.yaml"},
		Fields: menuFields,
		Output: config.OutputConfig{Format: config.OutputText},
	})
	require.NoError(t, err)
	assert.Equal(t, "mock://inputs/menus.yaml", result.Source)
	assert.Equal(t, "map[id:a]\n    map[id:b pid:a]\n", out.String())
}

func TestRun_Cycles(t *testing.T) {
	rows := []map[string]any{
		{"id": 1},
		{"id": 2, "pid": 3},
		{"id": 3, "pid": 2},
	}
	path := testutil.WriteRecords(t, t.TempDir(), "cycle.json", rows)

	t.Run("Rejected", func(t *testing.T) {
		svc, out := newTestService(t)
		_, err := svc.Run(context.Background(), fileRequest(path, model.ModeMap, config.OutputConfig{Format: config.OutputText}))
		require.Error(t, err)
		assert.True(t, apperrors.IsCircularReference(err))
		assert.Empty(t, out.String())
	})

	t.Run("Kept", func(t *testing.T) {
		svc, out := newTestService(t)
		svc.config.Tree.CyclePolicy = tree.CycleKeep.String()

		result, err := svc.Run(context.Background(), fileRequest(path, model.ModeNode, config.OutputConfig{Format: config.OutputText}))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Stats.Roots)
		assert.Equal(t, 2, result.Stats.Detached())
		assert.Equal(t, "Record{id=1 parent=<nil>}\n", out.String())
	})
}

func TestRun_Errors(t *testing.T) {
	path := testutil.WriteRecords(t, t.TempDir(), "menus.json", testutil.MenuRecords())
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		code string
	}{
		{
			"same id and parent field",
			Request{Source: config.SourceConfig{Type: config.SourceFile, Path: path}, Fields: tree.FieldNames{ID: "id", Parent: "id"}},
			apperrors.CodeInvalidConfig,
		},
		{
			"unknown mode",
			Request{Source: config.SourceConfig{Type: config.SourceFile, Path: path}, Mode: "graph"},
			apperrors.CodeConfigError,
		},
		{
			"missing file",
			fileRequest(filepath.Join(t.TempDir(), "absent.json"), model.ModeMap, config.OutputConfig{}),
			apperrors.CodeNotFound,
		},
		{
			"unknown source",
			Request{Source: config.SourceConfig{Type: "kafka"}},
			apperrors.CodeConfigError,
		},
		{
			"unknown output",
			fileRequest(path, model.ModeMap, config.OutputConfig{Format: "xml"}),
			apperrors.CodeConfigError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Run(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetErrorCode(err))
		})
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	first := testutil.WriteRecords(t, dir, "a.json", testutil.MenuRecords())
	second := testutil.WriteRecords(t, dir, "b.yaml", []map[string]any{{"id": "x"}, {"id": "y", "pid": "x"}})
	svc, _ := newTestService(t)

	reqs := []Request{
		fileRequest(first, model.ModeMap, config.OutputConfig{Format: config.OutputJSON, Path: filepath.Join(dir, "a.out.json")}),
		fileRequest(second, model.ModeNode, config.OutputConfig{Format: config.OutputZstd, Path: filepath.Join(dir, "b.out.json.zst")}),
		fileRequest(filepath.Join(dir, "missing.json"), model.ModeMap, config.OutputConfig{Format: config.OutputJSON}),
	}

	results, err := svc.RunBatch(context.Background(), reqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
	assert.True(t, apperrors.IsNotFound(err))

	require.Len(t, results, 3)
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Nil(t, results[2])
	assert.Equal(t, 3, results[0].Stats.Roots)
	assert.Equal(t, 2, results[1].Stats.Reachable)
	assert.True(t, testutil.FileExists(t, filepath.Join(dir, "b.out.json.zst")))
}

func TestRequestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Tree.Mode = "node"
	cfg.Tree.Fields = tree.FieldNames{ID: "code"}
	cfg.Source.Path = "menus.json"

	req, err := RequestFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, model.ModeNode, req.Mode)
	assert.Equal(t, tree.FieldNames{ID: "code", Parent: "parent", Children: "children"}, req.Fields)
	assert.Equal(t, "menus.json", req.Source.Path)

	cfg.Tree.Mode = "graph"
	_, err = RequestFromConfig(cfg)
	assert.Error(t, err)
}

func TestService_CloseWithoutDatabase(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.HealthCheck(context.Background()))
	assert.NoError(t, svc.Close())
}
