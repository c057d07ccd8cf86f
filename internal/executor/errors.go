package executor

import (
	"errors"
	"fmt"
)

// Run-level errors. Any of these makes the aggregate status a failure.
var (
	// ErrInvalidState indicates Register or Run was called after Run
	ErrInvalidState = errors.New("executor has already been run")

	// ErrDirectoryCreation indicates the output directory could not be created
	ErrDirectoryCreation = errors.New("could not create output directory")

	// ErrDeadlineExceeded indicates not every job completed before the timeout
	ErrDeadlineExceeded = errors.New("jobs did not complete before the deadline")

	// ErrInterrupted indicates the run was interrupted while waiting for jobs
	ErrInterrupted = errors.New("job execution interrupted")

	// ErrQuiesceTimeout indicates the worker pool did not stop within its grace period
	ErrQuiesceTimeout = errors.New("worker pool did not stop within the grace period")
)

// JobError is a failure of a single job's Produce call
// It never affects other jobs or the aggregate status
type JobError struct {
	Job string
	Err error
}

// Error implements the error interface
func (e *JobError) Error() string {
	return fmt.Sprintf("job %q failed: %v", e.Job, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *JobError) Unwrap() error {
	return e.Err
}

// WriteError is a failure to persist a job's records
// For status purposes it is treated exactly like a JobError
type WriteError struct {
	Job  string
	Path string
	Err  error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	return fmt.Sprintf("job %q: failed to write %s: %v", e.Job, e.Path, e.Err)
}

// Unwrap returns the wrapped error
func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsJobFailure reports whether err is scoped to a single job
func IsJobFailure(err error) bool {
	var jobErr *JobError
	var writeErr *WriteError
	return errors.As(err, &jobErr) || errors.As(err, &writeErr)
}
