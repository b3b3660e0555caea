// Package worker provides bounded-concurrency helpers shared by the
// retrieval loop's per-page fan-out and the section drafting engine.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job execution.
type Result interface {
	GetError() error
}

// Pool runs jobs with bounded parallelism. Unlike a free-running queue, Run
// preserves input order in its results, which callers rely on to map results
// back to their jobs.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given parallelism.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all jobs and returns results indexed like the input. A
// cancelled context stops jobs that have not started; results for jobs that
// never ran are nil.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	semaphore := make(chan struct{}, p.workers)

	var wg sync.WaitGroup
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return results
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, j Job) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = j.Execute(ctx)
		}(i, job)
	}
	wg.Wait()

	return results
}
