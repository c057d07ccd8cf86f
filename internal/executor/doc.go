// Package executor runs a fixed set of named export jobs on a bounded worker pool.
//
// An Executor is single-use. Jobs are registered while it is idle, then a single
// call to Run dispatches all of them, waits for their completion up to a
// deadline, and shuts the pool down. Every job writes its records to its own
// artifact, <output-dir>/<job-name>.<ext>, through a ResultWriter.
//
// # Basic Usage
//
//	exec := executor.New(2,
//	    executor.WithLogger(logger),
//	    executor.WithOutputDir("export"),
//	)
//
//	exec.Register(executor.NewJob("colors", func(ctx context.Context) ([]string, error) {
//	    return []string{"1,127,178,56", "2,247,233,163"}, nil
//	}))
//
//	report, err := exec.Run(ctx, 30*time.Second)
//	if err != nil {
//	    log.Printf("export failed: %v", err)
//	}
//	os.Exit(report.ExitCode())
//
// # Failure Containment
//
// A job that returns an error, panics, or whose artifact cannot be written is
// recorded in the Report as a *JobError or *WriteError. No artifact exists for
// it after the run, and neither its siblings nor the aggregate status are
// affected.
//
// The run itself fails with one of:
//
//   - ErrDirectoryCreation: the output directory could not be created; no job is dispatched
//   - ErrDeadlineExceeded: not every job completed before the timeout
//   - ErrInterrupted: the context passed to Run was cancelled while waiting
//   - ErrQuiesceTimeout: the pool did not stop within the grace period
//
// Calling Register or Run after Run fails with ErrInvalidState.
//
// # Deadlines
//
// The timeout bounds how long Run waits, not how long jobs may run. When it
// passes, the pool stops taking new work but jobs already running are left to
// finish and may still write their artifacts after Run has returned. Only
// cancellation of the Run context, or a failed shutdown, force-stops the
// workers: the context given to Job.Produce is cancelled and queued jobs are
// discarded.
//
// # Workers
//
// Workers are goroutines named "<prefix><n>" by a Namer. The name appears in
// log records under the "worker" key, in each JobResult, and as a "worker"
// pprof label on the goroutine.
package executor
