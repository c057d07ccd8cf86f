package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aryankumar/fleetexport/internal/util"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = ".fleetexport"
	defaultConfigDir  = ".fleetexport"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "FLEETEXPORT"
)

// Default export settings
const (
	DefaultTimeout      = 30 * time.Second
	DefaultGracePeriod  = 60 * time.Second
	DefaultParallel     = 2
	DefaultOutputDir    = "export"
	DefaultExtension    = "csv"
	DefaultOutputFormat = "table"
)

// Manager loads the fleetexport configuration
type Manager struct {
	configPath string
	usedPath   string
	config     *ExportConfig
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &ExportConfig{},
	}
}

// Load reads the configuration file and applies defaults
// A missing file is not an error.
func (m *Manager) Load() (*ExportConfig, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// ~/.fleetexport/.fleetexport.yaml, then ~/.fleetexport.yaml
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.AutomaticEnv()

	m.config = &ExportConfig{}

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		m.applyDefaults()
		return m.config, nil
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	m.usedPath = m.viper.ConfigFileUsed()

	m.applyDefaults()

	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	return m.config, nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *ExportConfig {
	return m.config
}

// ConfigFileUsed returns the path of the file that was read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.usedPath
}

// GetClusterConfig returns configuration for a specific cluster
func (m *Manager) GetClusterConfig(name string) (*ClusterConfig, bool) {
	if m.config.Clusters == nil {
		return nil, false
	}

	cluster, ok := m.config.Clusters[name]
	return &cluster, ok
}

// GetEnabledClusters returns the sorted names of enabled clusters
func (m *Manager) GetEnabledClusters() []string {
	return m.GetClustersByLabel(nil)
}

// GetClustersByLabel returns the sorted names of enabled clusters matching labels
func (m *Manager) GetClustersByLabel(labels map[string]string) []string {
	if m.config.Clusters == nil {
		return nil
	}

	matching := make([]string, 0)
	for name, cluster := range m.config.Clusters {
		if !cluster.Enabled {
			continue
		}

		if matchesLabels(cluster.Labels, labels) {
			matching = append(matching, name)
		}
	}
	sort.Strings(matching)

	return matching
}

// Resolve turns cluster names or a label selector into export targets
//
// Explicit names win over the selector. A name that is not in the configuration
// is treated as a kubeconfig context. With neither names nor a selector, every
// enabled cluster is used, falling back to DefaultContext and then to the
// kubeconfig current context, which is represented by an empty Context.
func (m *Manager) Resolve(names []string, selector map[string]string) ([]Target, error) {
	if len(names) == 0 {
		if len(selector) > 0 {
			names = m.GetClustersByLabel(selector)
			if len(names) == 0 {
				return nil, fmt.Errorf("no enabled clusters match selector %v", selector)
			}
		} else {
			names = m.GetEnabledClusters()
		}
	}

	if len(names) == 0 {
		return []Target{{Name: m.config.DefaultContext, Context: m.config.DefaultContext}}, nil
	}

	targets := make([]Target, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		target := Target{Name: name, Context: name}
		if cfg, ok := m.GetClusterConfig(name); ok {
			if cfg.Context != "" {
				target.Context = cfg.Context
			}
			if cfg.Alias != "" {
				target.Name = cfg.Alias
			}
		}
		targets = append(targets, target)
	}

	return targets, nil
}

// Validate checks the defaults for values an export cannot run with
func (c *ExportConfig) Validate() error {
	if c.Defaults.Timeout < 0 {
		return util.NewValidationError("defaults.timeout", c.Defaults.Timeout, "must not be negative")
	}
	if c.Defaults.GracePeriod < 0 {
		return util.NewValidationError("defaults.gracePeriod", c.Defaults.GracePeriod, "must not be negative")
	}
	if c.Defaults.Parallel < 0 {
		return util.NewValidationError("defaults.parallel", c.Defaults.Parallel, "must not be negative")
	}
	switch c.Defaults.OutputFormat {
	case "", "table", "json", "yaml":
	default:
		return util.NewValidationError("defaults.outputFormat", c.Defaults.OutputFormat, "must be one of table, json, yaml")
	}
	for name, cluster := range c.Clusters {
		if cluster.Context == "" {
			return util.NewValidationError("clusters."+name+".context", nil, "is required")
		}
	}
	return nil
}

func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	d := &m.config.Defaults
	if d.Timeout == 0 {
		d.Timeout = DefaultTimeout
	}
	if d.GracePeriod == 0 {
		d.GracePeriod = DefaultGracePeriod
	}
	if d.Parallel == 0 {
		d.Parallel = DefaultParallel
	}
	if d.OutputDir == "" {
		d.OutputDir = DefaultOutputDir
	}
	if d.Extension == "" {
		d.Extension = DefaultExtension
	}
	if d.OutputFormat == "" {
		d.OutputFormat = DefaultOutputFormat
	}
}

// matchesLabels checks if cluster labels contain every required label
func matchesLabels(clusterLabels, requiredLabels map[string]string) bool {
	for key, value := range requiredLabels {
		clusterValue, exists := clusterLabels[key]
		if !exists || clusterValue != value {
			return false
		}
	}

	return true
}
