package executor

import "context"

// Job is a named unit of work that produces text records for one artifact
// The name identifies the artifact, so it must be unique within one executor
type Job interface {
	// Name returns the stable identifier used to derive the artifact file name
	Name() string

	// Produce computes the job's records in order
	// Zero records is a valid outcome. Partial failures should be handled and
	// logged by the job itself; only an unrecoverable failure is returned.
	// The context is cancelled only when the executor force-stops its workers.
	Produce(ctx context.Context) ([]string, error)
}

// JobFunc adapts a plain function into a Job
type JobFunc func(ctx context.Context) ([]string, error)

type funcJob struct {
	name string
	fn   JobFunc
}

// NewJob returns a Job with the given name backed by fn
func NewJob(name string, fn JobFunc) Job {
	return &funcJob{name: name, fn: fn}
}

func (j *funcJob) Name() string {
	return j.name
}

func (j *funcJob) Produce(ctx context.Context) ([]string, error) {
	return j.fn(ctx)
}
