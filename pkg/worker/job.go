package worker

import (
	"github.com/google/uuid"

	"github.com/scielo/articlecheck/pkg/issue"
)

// Job is one document to validate.
type Job struct {
	// ID is a unique identifier for this job.
	ID string

	// Name identifies the document to the caller, e.g. its file path.
	Name string

	// Data is the XML document.
	Data []byte
}

// NewJob creates a job with a fresh random ID.
func NewJob(name string, data []byte) Job {
	return Job{ID: uuid.New().String(), Name: name, Data: data}
}

// JobResult represents the result of a validation job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Name matches the Job.Name that produced this result.
	Name string

	// Result contains the diagnostics.
	Result *issue.Result

	// Error contains any error that occurred during validation.
	Error error

	// Duration is the time taken to validate (in nanoseconds).
	Duration int64
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results contains all job results in submission order. Entries of jobs
	// that never ran are nil.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed (including errors).
	CompletedJobs int

	// FailedJobs is the number of jobs that failed with an error.
	FailedJobs int

	// TotalDuration is the wall time of the batch (in nanoseconds).
	TotalDuration int64
}

// HasFailuresAtLeast reports whether any job failed with an error or has a
// failing diagnostic at min severity or above.
func (br *BatchResult) HasFailuresAtLeast(min issue.Severity) bool {
	for _, r := range br.Results {
		if r == nil {
			continue
		}
		if r.Error != nil {
			return true
		}
		if r.Result != nil && r.Result.HasFailuresAtLeast(min) {
			return true
		}
	}
	return false
}

// FailureCount returns the number of failing diagnostics across all results.
func (br *BatchResult) FailureCount() int {
	count := 0
	for _, r := range br.Results {
		if r != nil && r.Result != nil {
			count += r.Result.FailureCount()
		}
	}
	return count
}
