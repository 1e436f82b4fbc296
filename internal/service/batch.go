package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tree-builder/pkg/model"
	"github.com/tree-builder/pkg/parallel"
)

// RunBatch runs independent builds concurrently on up to Batch.Workers
// goroutines. Results are in request order; a failed build leaves a nil
// result and contributes to the joined error.
func (s *Service) RunBatch(ctx context.Context, reqs []Request) ([]*model.BuildResult, error) {
	pool := parallel.NewWorkerPool[Request, *model.BuildResult](
		parallel.DefaultPoolConfig().WithWorkers(s.config.Batch.Workers).WithMetrics(),
	)
	results := pool.ExecuteFunc(ctx, reqs, s.Run)

	out := make([]*model.BuildResult, len(reqs))
	var errs []error
	for i, r := range results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("build %d (%s): %w", i, r.Input.label(), r.Error))
			continue
		}
		out[i] = r.Result
	}

	m := pool.Metrics()
	s.logger.Info("Batch finished: %d succeeded, %d failed, %d skipped",
		m.CompletedTasks, m.FailedTasks, m.SkippedTasks)

	return out, errors.Join(errs...)
}

// label names a request before its source is opened.
func (r Request) label() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.Source.Path != "":
		return r.Source.Path
	case r.Source.Table != "":
		return r.Source.Table
	default:
		return r.Source.Key
	}
}
