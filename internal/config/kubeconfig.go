package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// KubeconfigLoader resolves cluster contexts from one or more kubeconfig files
// Files are merged with clientcmd precedence: the first file defining a value wins.
type KubeconfigLoader struct {
	paths  []string
	merged *api.Config
}

// NewKubeconfigLoader creates a loader for explicitPath
// Without an explicit path it reads the files listed in KUBECONFIG, and then
// falls back to ~/.kube/config.
func NewKubeconfigLoader(explicitPath string) *KubeconfigLoader {
	return &KubeconfigLoader{paths: discoverPaths(explicitPath, os.Getenv(clientcmd.RecommendedConfigPathEnvVar))}
}

func discoverPaths(explicitPath, envValue string) []string {
	if explicitPath != "" {
		if path, err := expandPath(explicitPath); err == nil {
			return []string{path}
		}
		return nil
	}

	var paths []string
	for _, entry := range filepath.SplitList(envValue) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if path, err := expandPath(entry); err == nil {
			paths = append(paths, path)
		}
	}
	if len(paths) > 0 {
		return paths
	}

	if home, err := os.UserHomeDir(); err == nil {
		return []string{filepath.Join(home, clientcmd.RecommendedHomeDir, clientcmd.RecommendedFileName)}
	}
	return nil
}

func (l *KubeconfigLoader) rules() (*clientcmd.ClientConfigLoadingRules, error) {
	if len(l.paths) == 0 {
		return nil, fmt.Errorf("no kubeconfig paths available")
	}
	return &clientcmd.ClientConfigLoadingRules{Precedence: l.paths}, nil
}

// Load returns the merged kubeconfig, reading the files on first use only
func (l *KubeconfigLoader) Load() (*api.Config, error) {
	if l.merged != nil {
		return l.merged, nil
	}

	rules, err := l.rules()
	if err != nil {
		return nil, err
	}

	merged, err := rules.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	if merged == nil {
		return nil, fmt.Errorf("kubeconfig is empty")
	}

	l.merged = merged
	return merged, nil
}

// GetContexts returns all context names, sorted
func (l *KubeconfigLoader) GetContexts() ([]string, error) {
	merged, err := l.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(merged.Contexts))
	for name := range merged.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetCurrentContext returns the kubeconfig's current context, which may be empty
func (l *KubeconfigLoader) GetCurrentContext() (string, error) {
	merged, err := l.Load()
	if err != nil {
		return "", err
	}
	return merged.CurrentContext, nil
}

// HasContext reports whether the merged kubeconfig defines contextName
func (l *KubeconfigLoader) HasContext(contextName string) (bool, error) {
	merged, err := l.Load()
	if err != nil {
		return false, err
	}
	_, ok := merged.Contexts[contextName]
	return ok, nil
}

// BuildClientConfig creates a rest.Config for contextName
// An empty contextName selects the current context.
func (l *KubeconfigLoader) BuildClientConfig(contextName string) (*rest.Config, error) {
	rules, err := l.rules()
	if err != nil {
		return nil, err
	}

	overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create client config for context %q: %w", contextName, err)
	}
	return restConfig, nil
}

// GetPaths returns the kubeconfig files in precedence order
func (l *KubeconfigLoader) GetPaths() []string {
	return l.paths
}

// expandPath expands environment variables and a leading ~
func expandPath(path string) (string, error) {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Clean(path), nil
}
