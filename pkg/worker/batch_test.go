package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/scielo/articlecheck/pkg/issue"
	"github.com/scielo/articlecheck/pkg/logger"
	"github.com/scielo/articlecheck/pkg/validator"
)

func init() {
	logger.Disable()
}

// echoValidator returns one diagnostic whose title is the document body.
func echoValidator(calls *atomic.Int32) ValidateFunc {
	return func(ctx context.Context, data []byte, _ ...validator.ValidateOption) (*issue.Result, error) {
		calls.Add(1)
		if string(data) == "bad" {
			return nil, errors.New("bad document")
		}
		r := issue.NewResult()
		r.Add(issue.Diagnostic{Title: string(data), Severity: issue.SeverityError})
		return r, nil
	}
}

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = NewJob(fmt.Sprintf("doc%d.xml", i), []byte(strconv.Itoa(i)))
	}
	return jobs
}

func TestNewBatchValidatorDefaultWorkers(t *testing.T) {
	var calls atomic.Int32
	bv := NewBatchValidator(echoValidator(&calls), 0)
	if bv.Workers() <= 0 {
		t.Errorf("Workers() = %d; want > 0", bv.Workers())
	}
}

func TestValidateBatchPreservesOrder(t *testing.T) {
	tests := []struct {
		name    string
		jobs    int
		workers int
	}{
		{"empty", 0, 4},
		{"sequential", 2, 4},
		{"single worker", 5, 1},
		{"parallel", 50, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			jobs := makeJobs(tt.jobs)
			br := NewBatchValidator(echoValidator(&calls), tt.workers).ValidateBatch(context.Background(), jobs)

			if br.TotalJobs != tt.jobs || br.CompletedJobs != tt.jobs {
				t.Errorf("total/completed = %d/%d; want %d", br.TotalJobs, br.CompletedJobs, tt.jobs)
			}
			if int(calls.Load()) != tt.jobs {
				t.Errorf("calls = %d; want %d", calls.Load(), tt.jobs)
			}
			for i, r := range br.Results {
				if r.ID != jobs[i].ID || r.Name != jobs[i].Name {
					t.Errorf("Results[%d] = %s/%s; want %s/%s", i, r.ID, r.Name, jobs[i].ID, jobs[i].Name)
				}
				if r.Result.Diagnostics[0].Title != strconv.Itoa(i) {
					t.Errorf("Results[%d] holds the result of %q", i, r.Result.Diagnostics[0].Title)
				}
			}
			if br.FailureCount() != tt.jobs {
				t.Errorf("FailureCount() = %d; want %d", br.FailureCount(), tt.jobs)
			}
		})
	}
}

func TestValidateBatchErrors(t *testing.T) {
	var calls atomic.Int32
	jobs := append(makeJobs(3), NewJob("bad.xml", []byte("bad")))
	br := NewBatchValidator(echoValidator(&calls), 2).ValidateBatch(context.Background(), jobs)

	if br.FailedJobs != 1 {
		t.Errorf("FailedJobs = %d; want 1", br.FailedJobs)
	}
	if br.Results[3].Error == nil {
		t.Error("Results[3].Error should be set")
	}
	if !br.HasFailuresAtLeast(issue.SeverityCritical) {
		t.Error("a job error should count as a failure")
	}
}

func TestValidateBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	br := NewBatchValidator(echoValidator(&calls), 4).ValidateBatch(ctx, makeJobs(2))
	if br.CompletedJobs != 0 {
		t.Errorf("CompletedJobs = %d; want 0", br.CompletedJobs)
	}
	if br.HasFailuresAtLeast(issue.SeverityInfo) {
		t.Error("jobs that never ran have no failures")
	}
}

func TestNewJobIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, j := range makeJobs(100) {
		if seen[j.ID] {
			t.Fatalf("duplicate job ID %s", j.ID)
		}
		seen[j.ID] = true
	}
}

func TestValidateBatchWithValidator(t *testing.T) {
	v, err := validator.New()
	if err != nil {
		t.Fatal(err)
	}
	jobs := []Job{
		NewJob("ok.xml", []byte(`<article><front/><body><fig id="f1"/><xref rid="f1"/></body></article>`)),
		NewJob("dangling.xml", []byte(`<article><front/><body><xref rid="x"/></body></article>`)),
		NewJob("broken.xml", []byte(`<article>`)),
	}
	br := NewBatchValidator(v.ValidateBytes, 0).ValidateBatch(context.Background(), jobs)

	if br.Results[0].Error != nil || br.Results[0].Result.FailureCount() != 0 {
		t.Errorf("ok.xml: %+v", br.Results[0])
	}
	if br.Results[1].Result.FailureCount() != 1 {
		t.Errorf("dangling.xml failures = %d; want 1", br.Results[1].Result.FailureCount())
	}
	if br.Results[2].Error == nil {
		t.Error("broken.xml should fail to parse")
	}
}
