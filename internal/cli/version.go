package cli

import (
	"fmt"

	"github.com/aryankumar/fleetexport/internal/output"
	"github.com/aryankumar/fleetexport/pkg/version"
	"github.com/spf13/cobra"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for the Fleetexport CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	// only an explicit -o changes the plain text rendering
	if !cmd.Flags().Changed("output") {
		_, err := fmt.Fprintln(out, info.String())
		return err
	}

	name, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(format, output.WithNoColor(true))
	if format == output.FormatTable {
		return formatter.Format(out, output.Table{
			Headers: []string{"COMPONENT", "VALUE"},
			Rows: [][]string{
				{"Version", info.Version},
				{"Commit", info.Commit},
				{"Build Time", info.BuildTime},
				{"Go Version", info.GoVersion},
				{"Platform", info.Platform},
			},
		})
	}
	return formatter.Format(out, info)
}
