// Package parallel runs independent jobs on a bounded pool of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// Timeout bounds the whole run. Zero means no timeout.
	Timeout time.Duration

	// CollectMetrics enables collection of execution metrics.
	CollectMetrics bool
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a new config with the specified timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// WithMetrics returns a new config with metrics collection enabled.
func (c PoolConfig) WithMetrics() PoolConfig {
	c.CollectMetrics = true
	return c
}

// PoolMetrics holds execution statistics.
type PoolMetrics struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	SkippedTasks   int64
	TotalDuration  time.Duration
	MaxTaskTime    time.Duration
}

// TaskResult holds the result of one input.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// WorkerPool runs a function over many inputs concurrently.
type WorkerPool[T any, R any] struct {
	config  PoolConfig
	metrics PoolMetrics
	mu      sync.Mutex
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// ExecuteFunc applies fn to every input and returns the results in input
// order. Inputs not started before the context ends report the context error.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	startTime := time.Now()
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	results := make([]TaskResult[T, R], len(inputs))
	started := make([]bool, len(inputs))
	taskCh := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < min(p.config.MaxWorkers, len(inputs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskCh {
				taskStart := time.Now()
				result, err := fn(ctx, inputs[idx])
				duration := time.Since(taskStart)

				results[idx] = TaskResult[T, R]{
					Input:    inputs[idx],
					Result:   result,
					Error:    err,
					Duration: duration,
				}
				if p.config.CollectMetrics {
					p.record(duration, err)
				}
			}
		}()
	}

submit:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break submit
		case taskCh <- i:
			started[i] = true
		}
	}
	close(taskCh)
	wg.Wait()

	for i := range inputs {
		if !started[i] {
			results[i] = TaskResult[T, R]{Input: inputs[i], Error: ctx.Err()}
			if p.config.CollectMetrics {
				p.mu.Lock()
				p.metrics.TotalTasks++
				p.metrics.SkippedTasks++
				p.mu.Unlock()
			}
		}
	}

	if p.config.CollectMetrics {
		p.mu.Lock()
		p.metrics.TotalDuration += time.Since(startTime)
		p.mu.Unlock()
	}

	return results
}

func (p *WorkerPool[T, R]) record(duration time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.TotalTasks++
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}
	if duration > p.metrics.MaxTaskTime {
		p.metrics.MaxTaskTime = duration
	}
}

// Metrics returns the current execution metrics.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// ForEach executes fn for each item in parallel.
// Returns the number of items that succeeded and the first error by input order.
func ForEach[T any](ctx context.Context, items []T, config PoolConfig, fn func(ctx context.Context, item T) error) (int, error) {
	pool := NewWorkerPool[T, struct{}](config)
	results := pool.ExecuteFunc(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})

	processed := 0
	var firstErr error
	for _, r := range results {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		processed++
	}
	return processed, firstErr
}
