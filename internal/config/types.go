package config

import "time"

// ExportConfig is the structure of the fleetexport configuration file
type ExportConfig struct {
	// DefaultContext is the kubeconfig context used when no clusters are selected
	DefaultContext string `yaml:"defaultContext,omitempty" json:"defaultContext,omitempty"`

	// Clusters maps cluster names to kubeconfig contexts and selection labels
	Clusters map[string]ClusterConfig `yaml:"clusters,omitempty" json:"clusters,omitempty"`

	// Defaults holds export settings that flags may override
	Defaults DefaultsConfig `yaml:"defaults,omitempty" json:"defaults,omitempty"`
}

// ClusterConfig represents configuration for a single cluster
type ClusterConfig struct {
	// Context is the kubeconfig context name
	Context string `yaml:"context" json:"context"`

	// Alias is the name written into the cluster column of every record
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`

	// Labels for selecting clusters with --selector
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`

	// Enabled indicates if this cluster takes part in exports
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// DefaultsConfig contains default export settings
type DefaultsConfig struct {
	// Timeout bounds how long a run waits for its jobs
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// GracePeriod bounds how long the worker pool may take to stop
	GracePeriod time.Duration `yaml:"gracePeriod,omitempty" json:"gracePeriod,omitempty"`

	// Parallel is the number of export workers
	Parallel int `yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// OutputDir is the directory artifacts are written to
	OutputDir string `yaml:"outputDir,omitempty" json:"outputDir,omitempty"`

	// Extension is the artifact file extension
	Extension string `yaml:"extension,omitempty" json:"extension,omitempty"`

	// OutputFormat is the report format (table, json, yaml)
	OutputFormat string `yaml:"outputFormat,omitempty" json:"outputFormat,omitempty"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty"`
}

// Target is a cluster selected for an export
type Target struct {
	// Name is the label used in records and logs
	Name string `json:"name" yaml:"name"`

	// Context is the kubeconfig context to connect with
	Context string `json:"context" yaml:"context"`
}
