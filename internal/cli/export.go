package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryankumar/fleetexport/internal/cluster"
	"github.com/aryankumar/fleetexport/internal/config"
	"github.com/aryankumar/fleetexport/internal/executor"
	"github.com/aryankumar/fleetexport/internal/jobs"
	"github.com/aryankumar/fleetexport/internal/output"
	"github.com/spf13/cobra"
)

// connectFunc returns clients for the selected clusters and a function releasing them
type connectFunc func(ctx context.Context, a *app, s settings, logger *slog.Logger) ([]*cluster.Client, func(), error)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [job...]",
		Short: "Export cluster inventory to CSV artifacts",
		Long: `Export runs the selected inventory jobs (all jobs when none are given)
against every selected cluster and writes one artifact per job into the output
directory. Existing artifacts are replaced.

A job that fails is reported but does not fail the export. The export fails when
the output directory cannot be created, when jobs are still running after
--timeout, or when it is interrupted.`,
		Example: `  # Export everything from all enabled clusters
  fleetexport export

  # Export nodes and pods from two clusters with four workers
  fleetexport export nodes pods --clusters prod-east,prod-west -p 4

  # Export pods from every kubeconfig context
  fleetexport export pods --all-contexts

  # Export production clusters into a dated directory, report as JSON
  fleetexport export --selector env=production --output-dir export/$(date +%F) -o json`,
		ValidArgs: jobs.Names(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, args)
		},
	}

	cmd.Flags().Bool("all-contexts", false, "export from every context in the kubeconfig, ignoring the config file inventory")
	a.viper.BindPFlag("all-contexts", cmd.Flags().Lookup("all-contexts"))

	return cmd
}

func runExport(cmd *cobra.Command, a *app, names []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	s := a.settings()

	if err := validateSettings(s); err != nil {
		return err
	}
	format, err := output.ParseFormat(s.Output)
	if err != nil {
		return err
	}
	// reject unknown and repeated jobs before connecting to anything
	if _, err := jobs.Build(names, nil); err != nil {
		return err
	}

	clients, release, err := a.connect(ctx, a, s, logger)
	if err != nil {
		return err
	}
	defer release()

	built, err := jobs.Build(names, clients, jobs.WithLogger(logger))
	if err != nil {
		return err
	}

	exec := executor.New(s.Parallel,
		executor.WithLogger(logger),
		executor.WithOutputDir(s.OutputDir),
		executor.WithExtension(s.Extension),
		executor.WithGracePeriod(s.GracePeriod),
	)
	for _, job := range built {
		if err := exec.Register(job); err != nil {
			return err
		}
	}

	report, runErr := exec.Run(ctx, s.Timeout)
	if report != nil {
		formatter := output.NewFormatter(format, output.WithNoColor(s.NoColor), output.WithWide(s.Verbose))
		if err := formatter.FormatReport(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}

	if runErr != nil {
		return friendlyError(runErr, s)
	}
	return nil
}

// connectClusters resolves the selected clusters and connects to them
// Clusters that cannot be reached are logged; the export fails only when none connect.
func connectClusters(ctx context.Context, a *app, s settings, logger *slog.Logger) ([]*cluster.Client, func(), error) {
	loader := config.NewKubeconfigLoader(s.Kubeconfig)
	mgr := cluster.NewManager(loader, logger)
	release := func() { mgr.Close() }

	var err error
	if s.AllContexts {
		err = mgr.ConnectAll(ctx)
	} else {
		var targets []config.Target
		targets, err = resolveTargets(a.config, loader, s)
		if err != nil {
			return nil, nil, err
		}
		err = mgr.Connect(ctx, targets)
	}

	if err != nil {
		if mgr.Count() == 0 {
			release()
			return nil, nil, fmt.Errorf("no clusters connected: %w", err)
		}
		logger.Warn("continuing with the clusters that connected", "connected", mgr.Count(), "error", err)
	}

	if s.Verbose {
		for name, v := range mgr.Versions(ctx) {
			logger.Debug("cluster reachable", "cluster", name, "server_version", v)
		}
	}

	return mgr.Clients(), release, nil
}

// resolveTargets applies --clusters and --selector to the config inventory
// An unnamed target stands for the kubeconfig current context.
func resolveTargets(cfg *config.Manager, loader *config.KubeconfigLoader, s settings) ([]config.Target, error) {
	targets, err := cfg.Resolve(s.Clusters, s.Selector)
	if err != nil {
		return nil, err
	}

	for i := range targets {
		if targets[i].Name != "" {
			continue
		}
		current, err := loader.GetCurrentContext()
		if err != nil {
			return nil, fmt.Errorf("no clusters selected and no current context: %w", err)
		}
		if current == "" {
			return nil, fmt.Errorf("no clusters selected and the kubeconfig has no current context")
		}
		targets[i] = config.Target{Name: current, Context: current}
	}

	return targets, nil
}

// friendlyError adds a hint to run-level failures
func friendlyError(err error, s settings) error {
	switch {
	case errors.Is(err, executor.ErrDeadlineExceeded):
		return fmt.Errorf("%w (after %s; raise --timeout or --parallel)", err, s.Timeout)
	case errors.Is(err, executor.ErrDirectoryCreation):
		return fmt.Errorf("%w (check that %s is writable)", err, s.OutputDir)
	case errors.Is(err, executor.ErrQuiesceTimeout):
		return fmt.Errorf("%w (after %s; raise --grace-period)", err, s.GracePeriod)
	case errors.Is(err, executor.ErrInterrupted):
		return fmt.Errorf("export interrupted: %w", err)
	default:
		return err
	}
}
