package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/scielo/articlecheck/pkg/issue"
	"github.com/scielo/articlecheck/pkg/logger"
	"github.com/scielo/articlecheck/pkg/validator"
)

// ValidateFunc is the function signature for validating a single document.
// (*validator.Validator).ValidateBytes satisfies it.
type ValidateFunc func(ctx context.Context, data []byte, opts ...validator.ValidateOption) (*issue.Result, error)

// BatchValidator validates documents on a bounded number of goroutines.
type BatchValidator struct {
	validate ValidateFunc
	workers  int
}

// NewBatchValidator creates a new batch validator. If workers <= 0, it
// defaults to runtime.NumCPU().
func NewBatchValidator(validate ValidateFunc, workers int) *BatchValidator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchValidator{
		validate: validate,
		workers:  workers,
	}
}

// Workers returns the number of goroutines used for large batches.
func (bv *BatchValidator) Workers() int {
	return bv.workers
}

// ValidateBatch validates jobs in parallel. Results keep the order of jobs.
func (bv *BatchValidator) ValidateBatch(ctx context.Context, jobs []Job) *BatchResult {
	start := time.Now()

	var br *BatchResult
	switch {
	case len(jobs) == 0:
		br = &BatchResult{Results: make([]*JobResult, 0)}
	case len(jobs) <= 2 || bv.workers == 1:
		// For small batches, don't use parallelism
		br = bv.validateSequential(ctx, jobs)
	default:
		br = bv.validateParallel(ctx, jobs)
	}

	br.TotalDuration = time.Since(start).Nanoseconds()
	logger.Debug("Batch of %d job(s): %d completed, %d failed in %v",
		br.TotalJobs, br.CompletedJobs, br.FailedJobs, time.Duration(br.TotalDuration).Round(time.Millisecond))
	return br
}

func (bv *BatchValidator) run(ctx context.Context, job Job) *JobResult {
	start := time.Now()
	result, err := bv.validate(ctx, job.Data)
	return &JobResult{
		ID:       job.ID,
		Name:     job.Name,
		Result:   result,
		Error:    err,
		Duration: time.Since(start).Nanoseconds(),
	}
}

func (bv *BatchValidator) validateSequential(ctx context.Context, jobs []Job) *BatchResult {
	br := &BatchResult{
		Results:   make([]*JobResult, len(jobs)),
		TotalJobs: len(jobs),
	}

	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		r := bv.run(ctx, job)
		br.Results[i] = r
		br.CompletedJobs++
		if r.Error != nil {
			br.FailedJobs++
		}
	}

	return br
}

func (bv *BatchValidator) validateParallel(ctx context.Context, jobs []Job) *BatchResult {
	numWorkers := min(bv.workers, len(jobs))

	queue := make(chan indexedJob, len(jobs))
	resultsChan := make(chan indexedResult, len(jobs))

	// Start workers
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for range numWorkers {
		go func() {
			defer wg.Done()
			for ij := range queue {
				if ctx.Err() != nil {
					return
				}
				resultsChan <- indexedResult{index: ij.index, result: bv.run(ctx, ij.job)}
			}
		}()
	}

	// Submit jobs
	go func() {
		defer close(queue)
		for i, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case queue <- indexedJob{index: i, job: job}:
			}
		}
	}()

	// Wait for workers and close results channel
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results in order
	br := &BatchResult{
		Results:   make([]*JobResult, len(jobs)),
		TotalJobs: len(jobs),
	}
	for ir := range resultsChan {
		br.Results[ir.index] = ir.result
		br.CompletedJobs++
		if ir.result.Error != nil {
			br.FailedJobs++
		}
	}

	return br
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result *JobResult
}
