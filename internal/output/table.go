package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aryankumar/fleetexport/internal/executor"
	"github.com/olekukonko/tablewriter"
)

// Table is tabular data for the table formatter
// JSON and YAML formatters encode it as a list of objects keyed by header.
type Table struct {
	Headers []string
	Rows    [][]string
}

// MarshalJSON encodes the table as a list of objects
func (t Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.objects())
}

// MarshalYAML encodes the table as a list of objects
func (t Table) MarshalYAML() (interface{}, error) {
	return t.objects(), nil
}

func (t Table) objects() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		item := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				item[strings.ToLower(h)] = row[i]
			}
		}
		out = append(out, item)
	}
	return out
}

// TableFormatter formats output as a table (kubectl-style)
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case Table:
		return f.formatTable(w, v)
	case *Table:
		return f.formatTable(w, *v)
	case map[string]string:
		table := f.createTable(w)
		if !f.options.NoHeaders {
			table.SetHeader([]string{"KEY", "VALUE"})
		}
		for _, k := range sortedKeys(v) {
			table.Append([]string{k, v[k]})
		}
		table.Render()
		return nil
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

// FormatReport outputs one row per job followed by a summary
func (f *TableFormatter) FormatReport(w io.Writer, report *executor.Report) error {
	colors := NewColorScheme(w, f.options.NoColor)

	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No jobs")
	} else {
		table := f.createTable(w)

		headers := []string{"JOB", "STATUS", "RECORDS", "WORKER", "DURATION", "ARTIFACT"}
		if f.options.Wide {
			headers = append(headers, "ERROR")
		}
		if !f.options.NoHeaders {
			colored := make([]string, len(headers))
			for i, h := range headers {
				colored[i] = colors.Header("%s", h)
			}
			table.SetHeader(colored)
		}

		for _, res := range report.Results {
			table.Append(f.jobRow(res, colors))
		}
		table.Render()
	}

	f.printSummary(w, report, colors)
	return nil
}

func (f *TableFormatter) jobRow(res executor.JobResult, colors *ColorScheme) []string {
	status := jobStatus(res)
	path := res.Path
	if path == "" {
		path = "-"
	}
	worker := res.Worker
	if worker == "" {
		worker = "-"
	}

	row := []string{
		colors.ClusterName("%s", res.Name),
		colors.StatusColor(res.Err != nil)("%s", status),
		strconv.Itoa(res.Records),
		worker,
		colors.Duration("%s", res.Duration.Round(time.Millisecond)),
		path,
	}

	if f.options.Wide {
		msg := ""
		if res.Err != nil {
			msg = res.Err.Error()
		}
		row = append(row, msg)
	}
	return row
}

// printSummary prints totals, job errors when not in wide mode, and the run outcome
func (f *TableFormatter) printSummary(w io.Writer, report *executor.Report, colors *ColorScheme) {
	summary := report.Summary()

	fmt.Fprintln(w, "")

	successText := colors.Success("%d successful", summary.Successful)
	failedText := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failedText = colors.Error("%s", failedText)
	}
	fmt.Fprintf(w, "Summary: %s, %s, %d records, %s\n",
		successText,
		failedText,
		summary.Records,
		colors.Duration("took=%s", report.Duration.Round(time.Millisecond)))

	if !f.options.Wide {
		for _, res := range executor.FilterFailed(report.Results) {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, colors.Warning("%s", res.Err))
		}
	}

	if report.Err != nil {
		fmt.Fprintf(w, "Run %s: %s\n", colors.Error("failed"), report.Err)
		return
	}
	fmt.Fprintf(w, "Run %s\n", colors.Success("succeeded"))
}

func (f *TableFormatter) formatTable(w io.Writer, data Table) error {
	if len(data.Rows) == 0 {
		return nil
	}

	table := f.createTable(w)
	if !f.options.NoHeaders {
		table.SetHeader(data.Headers)
	}
	table.AppendBulk(data.Rows)
	table.Render()
	return nil
}

// createTable creates a new table with kubectl-style configuration
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
