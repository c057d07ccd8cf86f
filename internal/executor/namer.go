package executor

import (
	"strconv"
	"sync/atomic"
)

// DefaultWorkerPrefix is prepended to every worker name
const DefaultWorkerPrefix = "fleetexport-job-"

// Namer hands out sequential worker names with a common prefix
// Names start at 1 and are safe to request from multiple goroutines.
type Namer struct {
	prefix string
	next   atomic.Int64
}

// NewNamer creates a namer for the given prefix
func NewNamer(prefix string) *Namer {
	if prefix == "" {
		prefix = DefaultWorkerPrefix
	}
	return &Namer{prefix: prefix}
}

// Next returns the next worker name, e.g. "fleetexport-job-1"
func (n *Namer) Next() string {
	return n.prefix + strconv.FormatInt(n.next.Add(1), 10)
}

// Prefix returns the common name prefix
func (n *Namer) Prefix() string {
	return n.prefix
}
