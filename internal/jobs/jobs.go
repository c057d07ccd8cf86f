// Package jobs defines the inventory jobs fleetexport can run.
//
// Every job lists one kind of Kubernetes object across all connected clusters
// and turns each object into one CSV record. Records from all clusters are
// merged and sorted so that repeated exports of an unchanged fleet produce
// identical artifacts.
package jobs

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aryankumar/fleetexport/internal/cluster"
	"github.com/aryankumar/fleetexport/internal/executor"
	"github.com/aryankumar/fleetexport/internal/util"
)

// lister returns one row per object in a single cluster
type lister func(ctx context.Context, c *cluster.Client, now time.Time) ([][]string, error)

// Definition describes an inventory job
type Definition struct {
	// Name is the job name and the artifact base name
	Name string `json:"name" yaml:"name"`

	// Description is shown by the jobs command
	Description string `json:"description" yaml:"description"`

	// Columns names the fields of every record, in order
	Columns []string `json:"columns" yaml:"columns"`

	list lister
}

var definitions = []Definition{
	{
		Name:        "nodes",
		Description: "Nodes with readiness, roles and kubelet version",
		Columns:     []string{"cluster", "name", "status", "roles", "version", "age"},
		list:        listNodes,
	},
	{
		Name:        "namespaces",
		Description: "Namespaces with their lifecycle phase",
		Columns:     []string{"cluster", "name", "phase", "age"},
		list:        listNamespaces,
	},
	{
		Name:        "pods",
		Description: "Pods in all namespaces with phase, restarts and node",
		Columns:     []string{"cluster", "namespace", "name", "phase", "restarts", "node", "age"},
		list:        listPods,
	},
	{
		Name:        "deployments",
		Description: "Deployments with ready and desired replicas",
		Columns:     []string{"cluster", "namespace", "name", "ready", "desired", "age"},
		list:        listDeployments,
	},
	{
		Name:        "services",
		Description: "Services with type, cluster IP and ports",
		Columns:     []string{"cluster", "namespace", "name", "type", "cluster-ip", "ports"},
		list:        listServices,
	},
}

// Available returns every inventory job definition in export order
func Available() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Names returns the names of every inventory job
func Names() []string {
	names := make([]string, 0, len(definitions))
	for _, d := range definitions {
		names = append(names, d.Name)
	}
	return names
}

// Lookup finds a definition by name
func Lookup(name string) (Definition, bool) {
	for _, d := range definitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Option configures the jobs built by Build
type Option func(*inventoryJob)

// WithLogger sets the logger used to report skipped clusters
func WithLogger(logger *slog.Logger) Option {
	return func(j *inventoryJob) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithClock sets the time object ages are measured against
func WithClock(now func() time.Time) Option {
	return func(j *inventoryJob) {
		if now != nil {
			j.now = now
		}
	}
}

// Build creates the named jobs over clients
// With no names every available job is built. Unknown and repeated names are rejected.
func Build(names []string, clients []*cluster.Client, opts ...Option) ([]executor.Job, error) {
	if len(names) == 0 {
		names = Names()
	}

	built := make([]executor.Job, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		def, ok := Lookup(name)
		if !ok {
			return nil, util.NewValidationError("job", name, "unknown job, expected one of "+strings.Join(Names(), ", "))
		}
		if seen[name] {
			return nil, util.NewValidationError("job", name, "listed more than once")
		}
		seen[name] = true

		job := &inventoryJob{
			def:     def,
			clients: clients,
			logger:  slog.Default(),
			now:     time.Now,
		}
		for _, opt := range opts {
			opt(job)
		}
		built = append(built, job)
	}

	return built, nil
}

// inventoryJob runs one definition against every cluster
type inventoryJob struct {
	def     Definition
	clients []*cluster.Client
	logger  *slog.Logger
	now     func() time.Time
}

// Name implements executor.Job
func (j *inventoryJob) Name() string {
	return j.def.Name
}

// Produce implements executor.Job
// A cluster whose list call fails is skipped. The job fails only when every cluster does.
func (j *inventoryJob) Produce(ctx context.Context) ([]string, error) {
	if len(j.clients) == 0 {
		return nil, fmt.Errorf("no clusters connected")
	}

	now := j.now()
	var (
		rows [][]string
		errs util.MultiError
	)

	for _, c := range j.clients {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clusterRows, err := j.def.list(ctx, c, now)
		if err != nil {
			j.logger.Warn("skipping cluster",
				"job", j.def.Name,
				"cluster", c.Name,
				"error", err)
			errs.Add(fmt.Errorf("cluster %s: %w", c.Name, err))
			continue
		}
		rows = append(rows, clusterRows...)
	}

	if len(errs.Errors) == len(j.clients) {
		return nil, errs.ErrorOrNil()
	}
	if len(errs.Errors) > 0 {
		j.logger.Warn("partial inventory",
			"job", j.def.Name,
			"skipped", len(errs.Errors),
			"clusters", len(j.clients))
	}

	sort.Slice(rows, func(a, b int) bool {
		return lessRow(rows[a], rows[b])
	})

	records := make([]string, 0, len(rows))
	for _, row := range rows {
		record, err := encodeRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func lessRow(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// encodeRecord renders fields as one CSV line without the trailing newline
func encodeRecord(fields []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// clusterLabel is the value of the cluster column
func clusterLabel(c *cluster.Client) string {
	return util.ShortClusterName(c.Name)
}

// age renders the time since created the way kubectl does, in its largest unit
func age(created, now time.Time) string {
	if created.IsZero() {
		return "<unknown>"
	}

	d := now.Sub(created)
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
