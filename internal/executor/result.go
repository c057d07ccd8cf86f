package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/aryankumar/fleetexport/internal/util"
	"github.com/google/uuid"
)

// Status is the aggregate outcome of a run
type Status int

const (
	// StatusSuccess means every job completed in time and the pool stopped cleanly
	StatusSuccess Status = iota
	// StatusFailure covers directory creation failure, timeout, interruption and quiesce failure
	StatusFailure
)

// String returns the status name
func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failure"
}

// JobResult is the outcome of one job within a run
type JobResult struct {
	// Name is the job name
	Name string

	// Path is the artifact path; empty when no artifact was written
	Path string

	// Records is the number of records written
	Records int

	// Worker is the name of the worker that ran the job
	Worker string

	// Err is a *JobError, a *WriteError, or the run error for jobs that never completed
	Err error

	// Duration covers Produce and the write
	Duration time.Duration

	// Done is true once the job signalled completion
	Done bool
}

// Report describes one run of an Executor
type Report struct {
	// RunID identifies the run in logs
	RunID string

	// Started is when Run was entered
	Started time.Time

	// Duration is the wall-clock time Run took
	Duration time.Duration

	// Timeout is the deadline Run was given
	Timeout time.Duration

	// Workers is the pool size
	Workers int

	// Results holds one entry per registered job, in registration order
	Results []JobResult

	// Err is the run-level error; nil on success
	Err error
}

func newReport(jobs []Job, workers int, timeout time.Duration) *Report {
	results := make([]JobResult, len(jobs))
	for i, job := range jobs {
		results[i] = JobResult{Name: job.Name()}
	}

	return &Report{
		RunID:   uuid.New().String(),
		Started: time.Now(),
		Timeout: timeout,
		Workers: workers,
		Results: results,
	}
}

// markPending records cause on every job that has not signalled completion
func (r *Report) markPending(cause error) {
	for i := range r.Results {
		if !r.Results[i].Done {
			r.Results[i].Err = fmt.Errorf("job not completed: %w", cause)
		}
	}
}

// Status returns the aggregate status
func (r *Report) Status() Status {
	if r.Err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// ExitCode maps the aggregate status to a process exit code
func (r *Report) ExitCode() int {
	if r.Status() == StatusSuccess {
		return 0
	}
	return 1
}

// JobErrors combines the errors of all failed jobs, or returns nil
func (r *Report) JobErrors() error {
	return util.CombineErrors(GetErrors(r.Results)...)
}

// Summary summarizes the report's job results
func (r *Report) Summary() Summary {
	return Summarize(r.Results)
}

// CountSuccessful returns the number of jobs that wrote their artifact
func CountSuccessful(results []JobResult) int {
	count := 0
	for _, r := range results {
		if r.Err == nil && r.Done {
			count++
		}
	}
	return count
}

// CountFailed returns the number of jobs that did not write their artifact
func CountFailed(results []JobResult) int {
	return len(results) - CountSuccessful(results)
}

// FilterFailed returns only the failed results
func FilterFailed(results []JobResult) []JobResult {
	filtered := make([]JobResult, 0, len(results))
	for _, r := range results {
		if r.Err != nil || !r.Done {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// GetErrors extracts all errors from results
func GetErrors(results []JobResult) []error {
	errs := make([]error, 0)
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// TotalRecords returns the number of records written across all jobs
func TotalRecords(results []JobResult) int {
	total := 0
	for _, r := range results {
		total += r.Records
	}
	return total
}

// MaxDuration returns the maximum duration among all results
func MaxDuration(results []JobResult) time.Duration {
	var max time.Duration
	for _, r := range results {
		if r.Duration > max {
			max = r.Duration
		}
	}
	return max
}

// AverageDuration calculates the average duration of completed jobs
func AverageDuration(results []JobResult) time.Duration {
	var total time.Duration
	count := 0
	for _, r := range results {
		if r.Done {
			total += r.Duration
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// Summary provides a summary of job results
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	Records     int
	AvgDuration time.Duration
	MaxDuration time.Duration
}

// Summarize creates a summary of the results
func Summarize(results []JobResult) Summary {
	return Summary{
		Total:       len(results),
		Successful:  CountSuccessful(results),
		Failed:      CountFailed(results),
		Records:     TotalRecords(results),
		AvgDuration: AverageDuration(results),
		MaxDuration: MaxDuration(results),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d, ", s.Successful))
	sb.WriteString(fmt.Sprintf("Failed: %d, ", s.Failed))
	sb.WriteString(fmt.Sprintf("Records: %d", s.Records))

	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
	}

	return sb.String()
}
