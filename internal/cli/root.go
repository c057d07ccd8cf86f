package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aryankumar/fleetexport/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// app carries state shared by the commands of one invocation
type app struct {
	cfgFile string
	viper   *viper.Viper
	config  *config.Manager

	// connect builds cluster clients for an export; replaced in tests
	connect connectFunc
}

// settings are the resolved values of flags, environment and config file
type settings struct {
	Kubeconfig  string
	AllContexts bool
	Clusters    []string
	Selector    map[string]string
	Output      string
	Verbose     bool
	NoColor     bool
	Timeout     time.Duration
	GracePeriod time.Duration
	Parallel    int
	OutputDir   string
	Extension   string
}

func (a *app) settings() settings {
	return settings{
		Kubeconfig:  a.viper.GetString("kubeconfig"),
		AllContexts: a.viper.GetBool("all-contexts"),
		Clusters:    a.viper.GetStringSlice("clusters"),
		Selector:    a.viper.GetStringMapString("selector"),
		Output:      a.viper.GetString("output"),
		Verbose:     a.viper.GetBool("verbose"),
		NoColor:     a.viper.GetBool("no-color"),
		Timeout:     a.viper.GetDuration("timeout"),
		GracePeriod: a.viper.GetDuration("grace-period"),
		Parallel:    a.viper.GetInt("parallel"),
		OutputDir:   a.viper.GetString("output-dir"),
		Extension:   a.viper.GetString("extension"),
	}
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	return newAppCmd(&app{connect: connectClusters})
}

// newAppCmd creates the command tree around a
func newAppCmd(a *app) *cobra.Command {
	if a.viper == nil {
		a.viper = viper.New()
	}

	rootCmd := &cobra.Command{
		Use:   "fleetexport",
		Short: "Fleetexport - Kubernetes fleet inventory exporter",
		Long: `Fleetexport exports the inventory of one or more Kubernetes clusters
as CSV artifacts. Each inventory job (nodes, pods, deployments, ...) runs on a
bounded worker pool and writes one file; a job that fails never affects the others.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.fleetexport.yaml)")
	flags.String("kubeconfig", "", "path to kubeconfig file (default is $HOME/.kube/config)")
	flags.StringSlice("clusters", []string{}, "target clusters or contexts (comma-separated, empty means all enabled)")
	flags.StringToString("selector", map[string]string{}, "select configured clusters by label (key=value)")
	flags.StringP("output", "o", config.DefaultOutputFormat, "report format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output with debug logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.Duration("timeout", config.DefaultTimeout, "how long to wait for all export jobs")
	flags.IntP("parallel", "p", config.DefaultParallel, "number of export workers")
	flags.Duration("grace-period", config.DefaultGracePeriod, "how long workers may take to stop after the export")
	flags.String("output-dir", config.DefaultOutputDir, "directory artifacts are written to")
	flags.String("extension", config.DefaultExtension, "artifact file extension")

	for _, name := range []string{
		"kubeconfig", "clusters", "selector", "output", "verbose", "no-color",
		"timeout", "parallel", "grace-period", "output-dir", "extension",
	} {
		a.viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newJobsCmd(a))

	return rootCmd
}

// initConfig loads the config file and layers it under environment and flags
func (a *app) initConfig(cmd *cobra.Command) error {
	a.config = config.NewManager(a.cfgFile)
	cfg, err := a.config.Load()
	if err != nil {
		return err
	}

	// config file values sit below flags and environment
	d := cfg.Defaults
	a.viper.SetDefault("timeout", d.Timeout)
	a.viper.SetDefault("grace-period", d.GracePeriod)
	a.viper.SetDefault("parallel", d.Parallel)
	a.viper.SetDefault("output-dir", d.OutputDir)
	a.viper.SetDefault("extension", d.Extension)
	a.viper.SetDefault("output", d.OutputFormat)
	a.viper.SetDefault("no-color", d.NoColor)

	a.viper.SetEnvPrefix(config.EnvPrefix)
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()

	setupLogging(cmd.ErrOrStderr(), a.settings())

	if path := a.config.ConfigFileUsed(); path != "" {
		slog.Debug("loaded configuration", "file", path)
	}
	return nil
}

// setupLogging configures structured logging with slog
func setupLogging(w io.Writer, s settings) {
	logLevel := slog.LevelInfo
	if s.Verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if s.NoColor {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Debug("verbose logging enabled")
}

// validateSettings rejects flag values an export cannot run with
func validateSettings(s settings) error {
	if s.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", s.Timeout)
	}
	if s.GracePeriod <= 0 {
		return fmt.Errorf("--grace-period must be positive, got %s", s.GracePeriod)
	}
	if s.Parallel <= 0 {
		return fmt.Errorf("--parallel must be at least 1, got %d", s.Parallel)
	}
	if s.AllContexts && (len(s.Clusters) > 0 || len(s.Selector) > 0) {
		return fmt.Errorf("--all-contexts cannot be combined with --clusters or --selector")
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		return fmt.Errorf("--output-dir cannot be empty")
	}
	return nil
}
