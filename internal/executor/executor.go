package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aryankumar/fleetexport/internal/util"
	"github.com/aryankumar/fleetexport/internal/writer"
)

// DefaultGracePeriod bounds how long Run waits for the pool to stop after every job completed
const DefaultGracePeriod = 60 * time.Second

// State is the lifecycle state of an Executor
type State int32

const (
	// StateIdle accepts registrations
	StateIdle State = iota
	// StateRunning is entered by the single Run call
	StateRunning
	// StateCompleted is terminal
	StateCompleted
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ResultWriter persists one job's records under an identifier
// *writer.Writer is the production implementation.
type ResultWriter interface {
	EnsureDir() error
	Path(name string) string
	Write(name string, records []string) (int, error)
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the logger used by the executor and its pool
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithOutputDir sets the directory artifacts are written to
func WithOutputDir(dir string) Option {
	return func(e *Executor) {
		e.outputDir = dir
	}
}

// WithExtension sets the artifact file extension
func WithExtension(ext string) Option {
	return func(e *Executor) {
		e.extension = ext
	}
}

// WithWriter replaces the file writer; output dir and extension are then ignored
func WithWriter(w ResultWriter) Option {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithGracePeriod bounds the orderly pool shutdown after all jobs completed
func WithGracePeriod(d time.Duration) Option {
	return func(e *Executor) {
		e.grace = d
	}
}

// WithWorkerPrefix sets the prefix of worker names
func WithWorkerPrefix(prefix string) Option {
	return func(e *Executor) {
		e.workerPrefix = prefix
	}
}

// WithProgress registers a callback invoked on the waiting goroutine after each
// job completes, with (completed, total) counts
func WithProgress(fn func(completed, total int)) Option {
	return func(e *Executor) {
		e.progress = fn
	}
}

// Executor runs a fixed set of registered jobs once on a bounded worker pool
//
// Jobs are registered while the executor is idle. Run then dispatches every job,
// waits for all of them up to a deadline and shuts the pool down. An executor
// is single-use: Register and Run fail with ErrInvalidState after Run.
type Executor struct {
	jobs  []Job
	names map[string]struct{}

	// state holds a State; it is read by any goroutine
	state atomic.Int32

	pool   *Pool
	writer ResultWriter

	// drain stops the pool once every job completed; tests replace it
	drain func(ctx context.Context) error

	outputDir    string
	extension    string
	grace        time.Duration
	workerPrefix string
	progress     func(completed, total int)

	logger *slog.Logger
}

// New creates an executor whose pool has exactly concurrency workers
// concurrency must be > 0, otherwise it defaults to 1
func New(concurrency int, opts ...Option) *Executor {
	e := &Executor{
		jobs:         make([]Job, 0),
		names:        make(map[string]struct{}),
		outputDir:    writer.DefaultDir,
		extension:    writer.DefaultExtension,
		grace:        DefaultGracePeriod,
		workerPrefix: DefaultWorkerPrefix,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.grace <= 0 {
		e.grace = DefaultGracePeriod
	}
	if e.writer == nil {
		e.writer = writer.New(e.outputDir, e.extension, e.logger)
	}

	e.pool = NewPool(concurrency, NewNamer(e.workerPrefix), e.logger)
	e.drain = e.pool.Shutdown

	return e
}

// Register appends a job to the registration list
// It fails with ErrInvalidState once Run has been invoked. Register is meant
// for the single-threaded setup phase and is not safe for concurrent use.
func (e *Executor) Register(job Job) error {
	if e.State() != StateIdle {
		return fmt.Errorf("cannot register job: %w", ErrInvalidState)
	}

	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	name := job.Name()
	if err := validateJobName(name); err != nil {
		return err
	}

	if _, exists := e.names[name]; exists {
		return util.NewValidationError("name", name, "job is already registered")
	}

	e.names[name] = struct{}{}
	e.jobs = append(e.jobs, job)
	e.logger.Debug("job registered", "job", name, "total_jobs", len(e.jobs))

	return nil
}

// Run dispatches every registered job and waits up to timeout for all of them
//
// The returned report is nil only when Run fails with ErrInvalidState or an
// invalid timeout. A nil error means every job completed before the deadline
// and the pool stopped cleanly; individual job failures are recorded in the
// report but do not fail the run. When the deadline passes, jobs still running
// are not cancelled and may write their artifacts after Run returned.
// Cancelling ctx while waiting force-stops the pool.
func (e *Executor) Run(ctx context.Context, timeout time.Duration) (*Report, error) {
	if timeout <= 0 {
		return nil, util.NewValidationError("timeout", timeout, "must be positive")
	}

	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, fmt.Errorf("cannot run: %w", ErrInvalidState)
	}
	defer e.state.Store(int32(StateCompleted))

	report := newReport(e.jobs, e.pool.WorkerCount(), timeout)
	logger := e.logger.With("run_id", report.RunID)

	finish := func(err error) (*Report, error) {
		report.Err = err
		report.Duration = time.Since(report.Started)
		return report, err
	}

	if err := e.writer.EnsureDir(); err != nil {
		logger.Error("could not create output folder", "error", err)
		e.pool.Close()
		return finish(fmt.Errorf("%w: %w", ErrDirectoryCreation, err))
	}

	total := len(e.jobs)
	logger.Info("starting job execution",
		"workers", e.pool.WorkerCount(),
		"jobs", total,
		"job_names", e.JobNames(),
		"timeout", timeout)

	if err := e.pool.Start(total); err != nil {
		return finish(fmt.Errorf("failed to start worker pool: %w", err))
	}

	completions := make(chan completion, total)
	for i, job := range e.jobs {
		if err := e.pool.Submit(e.unit(i, job, completions, logger)); err != nil {
			// The queue is sized for every job, so this only happens if the pool
			// was closed underneath us. Count it as completed so the wait ends.
			completions <- completion{index: i, result: JobResult{
				Name: job.Name(),
				Err:  &JobError{Job: job.Name(), Err: err},
				Done: true,
			}}
		}
	}

	if err := e.await(ctx, report, completions, timeout, logger); err != nil {
		return finish(err)
	}

	graceCtx, cancel := context.WithTimeout(ctx, e.grace)
	defer cancel()

	if err := e.drain(graceCtx); err != nil {
		e.pool.ShutdownNow()
		if ctx.Err() != nil {
			logger.Error("job execution interrupted during shutdown", "error", ctx.Err())
			return finish(fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err()))
		}
		logger.Warn("shutdown took too long, forcing immediate shutdown", "grace_period", e.grace)
		return finish(fmt.Errorf("%w: %w", ErrQuiesceTimeout, err))
	}

	summary := report.Summary()
	logger.Info("job execution completed",
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"records", summary.Records,
		"duration", time.Since(report.Started))

	return finish(nil)
}

// await collects completions until every job reported, the deadline passes or ctx is cancelled
func (e *Executor) await(ctx context.Context, report *Report, completions <-chan completion, timeout time.Duration, logger *slog.Logger) error {
	total := len(report.Results)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for completed := 0; completed < total; {
		select {
		case c := <-completions:
			report.Results[c.index] = c.result
			completed++
			if e.progress != nil {
				e.progress(completed, total)
			}

		case <-timer.C:
			logger.Error("parallel export timed out",
				"completed", completed,
				"total", total,
				"timeout", timeout)
			// Running jobs are left alone; the pool only stops taking new work.
			e.pool.Close()
			report.markPending(ErrDeadlineExceeded)
			return ErrDeadlineExceeded

		case <-ctx.Done():
			logger.Error("job execution interrupted", "completed", completed, "total", total, "error", ctx.Err())
			e.pool.ShutdownNow()
			report.markPending(ErrInterrupted)
			return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
	}

	return nil
}

type completion struct {
	index  int
	result JobResult
}

// unit wraps a job so it always reports exactly one completion
func (e *Executor) unit(index int, job Job, done chan<- completion, logger *slog.Logger) Unit {
	return func(ctx context.Context, worker string) {
		name := job.Name()
		path := e.writer.Path(name)
		result := JobResult{Name: name, Worker: worker}
		start := time.Now()

		defer func() {
			result.Duration = time.Since(start)
			result.Done = true
			done <- completion{index: index, result: result}
		}()

		jobLogger := logger.With("job", name, "worker", worker)
		jobLogger.Info("generating", "path", path)

		records, err := produce(ctx, job)
		if err != nil {
			result.Err = &JobError{Job: name, Err: err}
			jobLogger.Error("failed to generate", "path", path, "error", err)
			return
		}

		n, err := e.save(name, records)
		if err != nil {
			result.Err = &WriteError{Job: name, Path: path, Err: err}
			jobLogger.Error("failed to save records", "path", path, "error", err)
			return
		}

		result.Path = path
		result.Records = n
	}
}

// produce runs job.Produce and turns a panic into an error
func produce(ctx context.Context, job Job) (records []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job.Produce(ctx)
}

// save writes records through the writer and turns a panic into an error
func (e *Executor) save(name string, records []string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.writer.Write(name, records)
}

// State returns the current lifecycle state
func (e *Executor) State() State {
	return State(e.state.Load())
}

// JobCount returns the number of registered jobs
func (e *Executor) JobCount() int {
	return len(e.jobs)
}

// JobNames returns registered job names in registration order
func (e *Executor) JobNames() []string {
	names := make([]string, len(e.jobs))
	for i, job := range e.jobs {
		names[i] = job.Name()
	}
	return names
}

// WorkerCount returns the size of the worker pool
func (e *Executor) WorkerCount() int {
	return e.pool.WorkerCount()
}

// WorkerNames returns the names of the pool's workers once Run started them
func (e *Executor) WorkerNames() []string {
	return e.pool.WorkerNames()
}

func validateJobName(name string) error {
	if strings.TrimSpace(name) == "" {
		return util.NewValidationError("name", nil, "job must have a name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return util.NewValidationError("name", name, "job name cannot contain path separators")
	}
	return nil
}
