package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aryankumar/fleetexport/internal/executor"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func testReport() *executor.Report {
	return &executor.Report{
		RunID:    "7d4f1c2e-0000-4000-8000-000000000001",
		Started:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration: 1500 * time.Millisecond,
		Timeout:  30 * time.Second,
		Workers:  2,
		Results: []executor.JobResult{
			{Name: "nodes", Path: "export/nodes.csv", Records: 12, Worker: "fleetexport-job-1", Done: true, Duration: 200 * time.Millisecond},
			{Name: "pods", Worker: "fleetexport-job-2", Done: true, Duration: 50 * time.Millisecond,
				Err: &executor.JobError{Job: "pods", Err: errors.New("forbidden")}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "table", want: FormatTable},
		{input: "json", want: FormatJSON},
		{input: "yaml", want: FormatYAML},
		{input: "", want: FormatTable},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{format: FormatTable, want: "*output.TableFormatter"},
		{format: FormatJSON, want: "*output.JSONFormatter"},
		{format: FormatYAML, want: "*output.YAMLFormatter"},
		{format: "unknown", want: "*output.TableFormatter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f := NewFormatter(tt.format, WithNoColor(true))
			if got := typeName(f); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(f Formatter) string {
	switch f.(type) {
	case *TableFormatter:
		return "*output.TableFormatter"
	case *JSONFormatter:
		return "*output.JSONFormatter"
	case *YAMLFormatter:
		return "*output.YAMLFormatter"
	}
	return "unknown"
}

func TestTableFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatTable, WithNoColor(true))

	if err := f.FormatReport(&buf, testReport()); err != nil {
		t.Fatalf("FormatReport failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"JOB", "STATUS", "RECORDS", "ARTIFACT",
		"nodes", "success", "12", "export/nodes.csv", "fleetexport-job-1",
		"pods", "failed",
		"Summary: 1 successful, 1 failed, 12 records, took=1.5s",
		`pods: job "pods" failed: forbidden`,
		"Run succeeded",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no color escapes with NoColor")
	}
}

func TestTableFormatter_FormatReport_Wide(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatTable, WithNoColor(true), WithWide(true))
	f.FormatReport(&buf, testReport())

	out := buf.String()
	if !strings.Contains(out, "ERROR") {
		t.Errorf("expected error column in wide output:\n%s", out)
	}
	if strings.Contains(out, "  pods: ") {
		t.Errorf("wide output should not repeat job errors below the summary:\n%s", out)
	}
}

func TestTableFormatter_FormatReport_RunFailure(t *testing.T) {
	report := testReport()
	report.Results[1] = executor.JobResult{
		Name: "pods",
		Err:  errors.New("job not completed: " + executor.ErrDeadlineExceeded.Error()),
	}
	report.Err = executor.ErrDeadlineExceeded

	var buf bytes.Buffer
	NewFormatter(FormatTable, WithNoColor(true)).FormatReport(&buf, report)

	out := buf.String()
	for _, want := range []string{"incomplete", "Run failed: jobs did not complete before the deadline"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTableFormatter_FormatReport_NoJobs(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(FormatTable, WithNoColor(true)).FormatReport(&buf, &executor.Report{})

	if !strings.Contains(buf.String(), "No jobs") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		data     interface{}
		contains []string
		absent   []string
	}{
		{
			name:     "table",
			data:     Table{Headers: []string{"NAME", "DESCRIPTION"}, Rows: [][]string{{"nodes", "Nodes"}, {"pods", "Pods"}}},
			contains: []string{"NAME", "DESCRIPTION", "nodes", "pods"},
		},
		{
			name:     "table without headers",
			opts:     []Option{WithNoHeaders(true)},
			data:     &Table{Headers: []string{"NAME"}, Rows: [][]string{{"nodes"}}},
			contains: []string{"nodes"},
			absent:   []string{"NAME"},
		},
		{
			name:     "map",
			data:     map[string]string{"version": "v1.0.0", "commit": "abc123"},
			contains: []string{"KEY", "VALUE", "version", "v1.0.0", "commit"},
		},
		{
			name:     "string",
			data:     "plain text",
			contains: []string{"plain text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := append([]Option{WithNoColor(true)}, tt.opts...)
			if err := NewFormatter(FormatTable, opts...).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected %q in output:\n%s", want, buf.String())
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(buf.String(), unwanted) {
					t.Errorf("did not expect %q in output:\n%s", unwanted, buf.String())
				}
			}
		})
	}
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).FormatReport(&buf, testReport()); err != nil {
		t.Fatalf("FormatReport failed: %v", err)
	}

	var got ReportView
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	want := NewReportView(testReport())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatYAML).FormatReport(&buf, testReport()); err != nil {
		t.Fatalf("FormatReport failed: %v", err)
	}

	var got ReportView
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, buf.String())
	}
	if got.Status != "success" || len(got.Jobs) != 2 || got.Jobs[1].Error == "" {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestTable_Marshal(t *testing.T) {
	table := Table{Headers: []string{"NAME", "COLUMNS"}, Rows: [][]string{{"nodes", "6"}}}

	data, err := json.Marshal(table)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[{"columns":"6","name":"nodes"}]` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var buf bytes.Buffer
	if err := NewFormatter(FormatYAML).Format(&buf, table); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: nodes") {
		t.Errorf("unexpected YAML:\n%s", buf.String())
	}
}

func TestNewReportView(t *testing.T) {
	view := NewReportView(testReport())

	want := SummaryView{Total: 2, Successful: 1, Failed: 1, Records: 12}
	if diff := cmp.Diff(want, view.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if view.Duration != "1.5s" || view.Timeout != "30s" {
		t.Errorf("unexpected durations: %s, %s", view.Duration, view.Timeout)
	}
	if view.Jobs[0].Status != "success" || view.Jobs[1].Status != "failed" {
		t.Errorf("unexpected job statuses: %+v", view.Jobs)
	}
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name string
		res  executor.JobResult
		want string
	}{
		{name: "written", res: executor.JobResult{Name: "nodes", Done: true}, want: "success"},
		{name: "produce failed", res: executor.JobResult{Name: "pods", Done: true,
			Err: &executor.JobError{Job: "pods", Err: errors.New("forbidden")}}, want: "failed"},
		{name: "write failed", res: executor.JobResult{Name: "pods", Done: true,
			Err: &executor.WriteError{Job: "pods", Path: "export/pods.csv", Err: errors.New("disk full")}}, want: "failed"},
		{name: "never completed", res: executor.JobResult{Name: "services",
			Err: fmt.Errorf("job not completed: %w", executor.ErrInterrupted)}, want: "incomplete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jobStatus(tt.res); got != tt.want {
				t.Errorf("jobStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColorScheme(t *testing.T) {
	var buf bytes.Buffer
	cs := NewColorScheme(&buf, false)
	if !cs.Disabled {
		t.Error("colors should be disabled for non-terminal writers")
	}
	if got := cs.StatusColor(true)("%d failed", 2); got != "2 failed" {
		t.Errorf("unexpected plain output %q", got)
	}
}
