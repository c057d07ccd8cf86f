package cli

import (
	"strings"

	"github.com/aryankumar/fleetexport/internal/jobs"
	"github.com/aryankumar/fleetexport/internal/output"
	"github.com/spf13/cobra"
)

func newJobsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the available inventory jobs",
		Long:  "List every inventory job with its description and the columns of its records.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings()
			format, err := output.ParseFormat(s.Output)
			if err != nil {
				return err
			}

			formatter := output.NewFormatter(format, output.WithNoColor(s.NoColor))
			if format != output.FormatTable {
				return formatter.Format(cmd.OutOrStdout(), jobs.Available())
			}

			table := output.Table{Headers: []string{"JOB", "DESCRIPTION", "COLUMNS"}}
			for _, d := range jobs.Available() {
				table.Rows = append(table.Rows, []string{d.Name, d.Description, strings.Join(d.Columns, ",")})
			}
			return formatter.Format(cmd.OutOrStdout(), table)
		},
	}
}
