// Package output renders fleetexport command results.
//
// Export reports can be rendered as a kubectl-style table, JSON or YAML.
// The table shows one row per job with its status, record count, worker,
// duration and artifact path, followed by a summary line and the run outcome.
// JSON and YAML encode a ReportView, which carries the same information with
// durations as strings and errors as messages.
//
// Colors are used only when writing to a terminal and can be disabled with
// WithNoColor.
//
//	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(true))
//	formatter.FormatReport(os.Stdout, report)
package output
