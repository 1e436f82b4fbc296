package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tree-builder/pkg/bean"
	"github.com/tree-builder/pkg/config"
	apperrors "github.com/tree-builder/pkg/errors"
	"github.com/tree-builder/pkg/model"
	"github.com/tree-builder/pkg/telemetry"
	"github.com/tree-builder/pkg/tree"
	"github.com/tree-builder/pkg/utils"
	"github.com/tree-builder/pkg/writer"
)

// Request describes one build.
type Request struct {
	// Name labels the build in logs and results. Empty uses the source name.
	Name   string
	Source config.SourceConfig
	Fields tree.FieldNames
	Mode   model.Mode
	Output config.OutputConfig
}

// RequestFromConfig returns the build described by the configuration file.
func RequestFromConfig(cfg *config.Config) (Request, error) {
	mode, err := model.ParseMode(cfg.Tree.Mode)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Source: cfg.Source,
		Fields: cfg.Tree.Fields.WithDefaults(),
		Mode:   mode,
		Output: cfg.Output,
	}, nil
}

// Run loads the records of req, links them into a forest and writes the
// forest out. Text output prints the indented forest; the other formats
// write JSON. When req.Output.UploadKey is set the output is also uploaded.
func (s *Service) Run(ctx context.Context, req Request) (result *model.BuildResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "tree.build",
		attribute.String("tree.source.type", req.Source.Type),
		attribute.String("tree.mode", string(req.Mode)),
		attribute.String("tree.output.format", req.Output.Format),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	names := req.Fields.WithDefaults()
	if err := names.Validate(); err != nil {
		return nil, err
	}
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid build mode", err)
	}
	opts, err := s.config.BuildOptions(s.logger)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid build options", err)
	}

	src, err := s.newSource(&req.Source)
	if err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = src.Name()
	}
	logger := s.logger.WithField("build", name)
	timer := utils.NewTimer(name, utils.WithClock(s.clock))

	var records []map[string]any
	if _, err = timer.TimeFuncWithError("load", func() error {
		var loadErr error
		records, loadErr = src.Load(ctx)
		return loadErr
	}); err != nil {
		return nil, err
	}
	logger.Debug("loaded %d records from %s", len(records), src.Name())

	var built *forest
	if _, err = timer.TimeFuncWithError("build", func() error {
		var buildErr error
		built, buildErr = buildForest(records, mode, names, opts)
		return buildErr
	}); err != nil {
		return nil, err
	}
	if n := built.stats.Detached(); n > 0 {
		logger.Warn("%d records sit in parent cycles and are not reachable from any root", n)
	}

	result = &model.BuildResult{
		Name:       name,
		Source:     src.Name(),
		Mode:       mode,
		Stats:      built.stats,
		OutputPath: req.Output.Path,
		Forest:     built.roots,
	}

	var rendered []byte
	if _, err = timer.TimeFuncWithError("write", func() error {
		var writeErr error
		rendered, writeErr = s.writeOutput(req.Output, built, logger)
		return writeErr
	}); err != nil {
		return nil, err
	}

	if req.Output.UploadKey != "" {
		if _, err = timer.TimeFuncWithError("upload", func() error {
			return s.upload(ctx, req.Output, rendered, logger)
		}); err != nil {
			return nil, err
		}
		result.RemoteKey = req.Output.UploadKey
	}

	result.Duration = timer.TotalDuration()
	result.Timings = timer.Durations()
	result.BuiltAt = s.clock.Now()

	span.SetAttributes(
		attribute.Int("tree.records", built.stats.Records),
		attribute.Int("tree.roots", built.stats.Roots),
		attribute.Int("tree.depth", built.stats.Depth),
	)
	logger.Info("built %d records into %d roots (depth %d) in %v",
		built.stats.Records, built.stats.Roots, built.stats.Depth, result.Duration)
	logger.Debug("timings %s", timer.Summary())

	return result, nil
}

// forest is a built forest together with what it takes to print it.
type forest struct {
	roots any
	stats model.BuildStats
	print func(p *tree.Printer) error
}

// recordFields names the model.Record fields by their json tags.
var recordFields = tree.DefaultFieldNames()

func buildForest(records []map[string]any, mode model.Mode, names tree.FieldNames, opts []tree.Option) (*forest, error) {
	switch mode {
	case model.ModeFields:
		recs, err := bean.ToRecords(records, names)
		if err != nil {
			return nil, err
		}
		roots, err := tree.BuildFields(recs, recordFields.ID, recordFields.Parent, recordFields.Children, opts...)
		if err != nil {
			return nil, err
		}
		return &forest{
			roots: roots,
			stats: statsOf(len(recs), roots, tree.NodeChildren[any, *model.Record]()),
			print: func(p *tree.Printer) error {
				return tree.PrintFields(p, roots, recordFields)
			},
		}, nil

	case model.ModeNode:
		recs, err := bean.ToRecords(records, names)
		if err != nil {
			return nil, err
		}
		roots, err := tree.Build[any](recs, opts...)
		if err != nil {
			return nil, err
		}
		return &forest{
			roots: roots,
			stats: statsOf(len(recs), roots, tree.NodeChildren[any, *model.Record]()),
			print: func(p *tree.Printer) error {
				tree.PrintNodes[any](p, roots)
				return nil
			},
		}, nil

	default:
		var (
			roots []map[string]any
			err   error
		)
		if names.Children == tree.ChildrenKey {
			roots, err = tree.BuildMaps(records, names.ID, names.Parent, opts...)
		} else {
			roots, err = tree.BuildFields(records, names.ID, names.Parent, names.Children, opts...)
		}
		if err != nil {
			return nil, err
		}
		acc, err := tree.ResolveAccessor(map[string]any{}, names)
		if err != nil {
			return nil, err
		}
		return &forest{
			roots: roots,
			stats: statsOf(len(records), roots, tree.AccessorChildren[map[string]any](acc)),
			print: func(p *tree.Printer) error {
				if names.Children == tree.ChildrenKey {
					tree.PrintMaps(p, roots)
					return nil
				}
				return tree.PrintFields(p, roots, names)
			},
		}, nil
	}
}

func statsOf[T any](records int, roots []T, children tree.ChildrenFunc[T]) model.BuildStats {
	return model.BuildStats{
		Records:   records,
		Roots:     len(roots),
		Reachable: tree.Count(roots, children),
		Depth:     tree.Depth(roots, children),
	}
}

// writeOutput writes the forest to out.Path, or to the service output when
// the path is empty. In the latter case it returns the rendered bytes.
func (s *Service) writeOutput(out config.OutputConfig, f *forest, logger utils.Logger) ([]byte, error) {
	format := out.Format
	if format == "" {
		format = config.OutputText
	}

	if out.Path == "" {
		var buf bytes.Buffer
		if err := render(&buf, format, out.Pretty, f); err != nil {
			return nil, err
		}
		if err := s.writeStdout(buf.Bytes()); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to write output", err)
		}
		return buf.Bytes(), nil
	}

	if format != config.OutputText {
		w, err := writer.New[any](format, out.Pretty)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid output", err)
		}
		if cw, ok := w.(*writer.CompressedWriter[any]); ok {
			stats, err := cw.WriteToFileWithStats(f.roots, out.Path)
			if err != nil {
				return nil, err
			}
			logger.Debug("wrote %s: %d bytes of JSON compressed to %d bytes (%.1f%%)",
				out.Path, stats.JSONSize, stats.CompressedSize, stats.CompressionPct)
			return nil, nil
		}
		return nil, w.WriteToFile(f.roots, out.Path)
	}

	if err := os.MkdirAll(filepath.Dir(out.Path), 0755); err != nil {
		return nil, err
	}
	file, err := os.Create(out.Path)
	if err != nil {
		return nil, err
	}
	if err := render(file, format, out.Pretty, f); err != nil {
		file.Close()
		return nil, err
	}
	return nil, file.Close()
}

func render(w io.Writer, format string, pretty bool, f *forest) error {
	if format == config.OutputText {
		return f.print(tree.NewPrinter(w))
	}
	fw, err := writer.New[any](format, pretty)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigError, "invalid output", err)
	}
	return fw.Write(f.roots, w)
}

// upload sends the file at out.Path, or rendered when there is no path.
func (s *Service) upload(ctx context.Context, out config.OutputConfig, rendered []byte, logger utils.Logger) error {
	store, err := s.objectStorage()
	if err != nil {
		return err
	}

	var body io.Reader = bytes.NewReader(rendered)
	if out.Path != "" {
		file, err := os.Open(out.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		body = file
	}

	if err := store.Upload(ctx, out.UploadKey, body); err != nil {
		return err
	}
	logger.Info("uploaded output to %s", store.GetURL(out.UploadKey))
	return nil
}
