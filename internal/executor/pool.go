package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/pprof"
	"sync"
	"sync/atomic"
)

var (
	// ErrPoolClosed indicates the pool no longer accepts work
	ErrPoolClosed = errors.New("pool is shutting down, cannot submit new work")

	// ErrQueueFull indicates the pool's queue has no room left
	ErrQueueFull = errors.New("pool queue is full")
)

// Unit is one piece of work run on a pool worker
// worker is the name of the worker goroutine running the unit
type Unit func(ctx context.Context, worker string)

// Pool is a fixed-size set of named worker goroutines draining a bounded queue
// Workers are started once by Start and never resized. The pool supports an
// orderly Shutdown that lets queued work finish, and a forced ShutdownNow that
// cancels the workers' context and discards work that has not started.
type Pool struct {
	// workers is the number of worker goroutines
	workers int

	// namer names the workers for logs and goroutine profiles
	namer *Namer

	// names holds the names of started workers
	names []string

	// queue feeds units to workers; nil until Start
	queue chan Unit

	// mu serializes Submit against closing the queue
	mu sync.Mutex

	// ctx is handed to every unit and cancelled by ShutdownNow
	ctx    context.Context
	cancel context.CancelFunc

	wg   sync.WaitGroup
	done chan struct{}

	started atomic.Bool
	closed  atomic.Bool
	dropped atomic.Int64

	logger *slog.Logger
}

// NewPool allocates a pool with the specified number of workers
// workers must be > 0, otherwise it defaults to 1
func NewPool(workers int, namer *Namer, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if namer == nil {
		namer = NewNamer("")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: workers,
		namer:   namer,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Start launches the worker goroutines with room for queueSize pending units
func (p *Pool) Start(queueSize int) error {
	if queueSize < 0 {
		queueSize = 0
	}

	p.mu.Lock()
	if p.closed.Load() {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if !p.started.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return fmt.Errorf("pool already started")
	}
	p.queue = make(chan Unit, queueSize)
	p.names = make([]string, p.workers)
	for i := range p.names {
		p.names[i] = p.namer.Next()
	}
	p.mu.Unlock()

	p.logger.Debug("starting workers", "count", p.workers, "prefix", p.namer.Prefix())

	p.wg.Add(p.workers)
	for _, name := range p.names {
		go p.worker(name)
	}

	go func() {
		p.wg.Wait()
		if dropped := p.Dropped(); dropped > 0 {
			p.logger.Warn("discarded queued work on forced stop", "dropped", dropped)
		}
		close(p.done)
	}()

	return nil
}

// Submit queues a unit for execution without blocking
func (p *Pool) Submit(u Unit) error {
	if u == nil {
		return fmt.Errorf("unit cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.IsShutdown() {
		return ErrPoolClosed
	}
	if p.queue == nil {
		return fmt.Errorf("pool has not been started")
	}

	select {
	case p.queue <- u:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the pool from accepting work without waiting for it to drain
// Workers exit once the queued units have run. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed.CompareAndSwap(false, true) {
		return
	}

	if p.queue != nil {
		close(p.queue)
	}
	if !p.started.Load() {
		// No workers will ever close done.
		close(p.done)
	}
}

// Shutdown closes the pool and waits for in-flight and queued units to finish
// The context bounds how long to wait; on expiry the workers are left running
// and the caller decides whether to call ShutdownNow.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.Close()
	p.logger.Debug("shutting down worker pool")

	select {
	case <-p.done:
		p.logger.Debug("worker pool shut down successfully")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// ShutdownNow closes the pool, cancels the context passed to running units
// and discards queued units that have not started
func (p *Pool) ShutdownNow() {
	p.cancel()
	p.Close()
	p.logger.Warn("worker pool force-stopped")
}

// Done is closed once every worker has exited
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// IsShutdown returns true once the pool stopped accepting work
func (p *Pool) IsShutdown() bool {
	return p.closed.Load()
}

// WorkerCount returns the number of workers in the pool
func (p *Pool) WorkerCount() int {
	return p.workers
}

// WorkerNames returns the names of the started workers
func (p *Pool) WorkerNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

// Dropped returns how many queued units were discarded by ShutdownNow
func (p *Pool) Dropped() int {
	return int(p.dropped.Load())
}

// worker drains the queue until it is closed
// The goroutine carries a "worker" pprof label so it can be found in profiles.
func (p *Pool) worker(name string) {
	defer p.wg.Done()

	logger := p.logger.With("worker", name)
	logger.Debug("worker started")

	pprof.Do(p.ctx, pprof.Labels("worker", name), func(ctx context.Context) {
		for u := range p.queue {
			if ctx.Err() != nil {
				p.dropped.Add(1)
				continue
			}
			p.run(ctx, name, u, logger)
		}
	})

	logger.Debug("worker finished (no more work)")
}

// run executes a unit, keeping a panic from taking the worker down with it
func (p *Pool) run(ctx context.Context, name string, u Unit, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unit panicked", "panic", r)
		}
	}()
	u(ctx, name)
}
