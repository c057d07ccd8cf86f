package output

import (
	"time"

	"github.com/aryankumar/fleetexport/internal/executor"
)

// ReportView is the serialized form of an export report
type ReportView struct {
	RunID    string      `json:"runId" yaml:"runId"`
	Status   string      `json:"status" yaml:"status"`
	Error    string      `json:"error,omitempty" yaml:"error,omitempty"`
	Started  time.Time   `json:"started" yaml:"started"`
	Duration string      `json:"duration" yaml:"duration"`
	Timeout  string      `json:"timeout" yaml:"timeout"`
	Workers  int         `json:"workers" yaml:"workers"`
	Summary  SummaryView `json:"summary" yaml:"summary"`
	Jobs     []JobView   `json:"jobs" yaml:"jobs"`
}

// SummaryView holds the aggregate counts of a report
type SummaryView struct {
	Total      int `json:"total" yaml:"total"`
	Successful int `json:"successful" yaml:"successful"`
	Failed     int `json:"failed" yaml:"failed"`
	Records    int `json:"records" yaml:"records"`
}

// JobView is the serialized outcome of one job
type JobView struct {
	Name     string `json:"name" yaml:"name"`
	Status   string `json:"status" yaml:"status"`
	Records  int    `json:"records" yaml:"records"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Worker   string `json:"worker,omitempty" yaml:"worker,omitempty"`
	Duration string `json:"duration" yaml:"duration"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewReportView converts a report for serialization
func NewReportView(r *executor.Report) ReportView {
	summary := r.Summary()
	view := ReportView{
		RunID:    r.RunID,
		Status:   r.Status().String(),
		Started:  r.Started,
		Duration: r.Duration.Round(time.Millisecond).String(),
		Timeout:  r.Timeout.String(),
		Workers:  r.Workers,
		Summary: SummaryView{
			Total:      summary.Total,
			Successful: summary.Successful,
			Failed:     summary.Failed,
			Records:    summary.Records,
		},
		Jobs: make([]JobView, 0, len(r.Results)),
	}
	if r.Err != nil {
		view.Error = r.Err.Error()
	}

	for _, res := range r.Results {
		view.Jobs = append(view.Jobs, newJobView(res))
	}
	return view
}

func newJobView(res executor.JobResult) JobView {
	job := JobView{
		Name:     res.Name,
		Status:   jobStatus(res),
		Records:  res.Records,
		Path:     res.Path,
		Worker:   res.Worker,
		Duration: res.Duration.Round(time.Millisecond).String(),
	}
	if res.Err != nil {
		job.Error = res.Err.Error()
	}
	return job
}

func jobStatus(res executor.JobResult) string {
	switch {
	case res.Err == nil:
		return "success"
	case executor.IsJobFailure(res.Err):
		return "failed"
	default:
		// marked with the run error because it never reported back
		return "incomplete"
	}
}
