package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryankumar/fleetexport/pkg/version"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// versionTimeout bounds a server version probe on an unresponsive cluster
const versionTimeout = 10 * time.Second

// Client is a connection to a single Kubernetes cluster
type Client struct {
	// Name labels the cluster in records and logs
	Name string

	// Context is the kubeconfig context name
	Context string

	// Clientset is the Kubernetes client interface
	Clientset kubernetes.Interface

	// RestConfig is the underlying REST configuration; nil for injected clientsets
	RestConfig *rest.Config
}

// NewClient creates a client for a REST config
// No request is made until the client is used.
func NewClient(name, contextName string, restConfig *rest.Config, logger *slog.Logger) (*Client, error) {
	if restConfig == nil {
		return nil, fmt.Errorf("rest config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if restConfig.UserAgent == "" {
		restConfig = rest.CopyConfig(restConfig)
		restConfig.UserAgent = version.Get().UserAgent()
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	logger.Debug("created cluster client",
		"cluster", name,
		"context", contextName,
		"server", restConfig.Host)

	return &Client{
		Name:       name,
		Context:    contextName,
		Clientset:  clientset,
		RestConfig: restConfig,
	}, nil
}

// NewClientForClientset wraps an existing clientset, such as a fake one
func NewClientForClientset(name string, clientset kubernetes.Interface) *Client {
	return &Client{
		Name:      name,
		Context:   name,
		Clientset: clientset,
	}
}

// ServerVersion returns the Kubernetes server version
// Discovery calls take no context, so the call is abandoned when ctx or the probe timeout ends.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	versionCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	type result struct {
		version string
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		info, err := c.Clientset.Discovery().ServerVersion()
		if err != nil {
			resultCh <- result{err: err}
			return
		}
		resultCh <- result{version: info.GitVersion}
	}()

	select {
	case <-versionCtx.Done():
		return "", fmt.Errorf("server version probe for %s: %w", c.Name, versionCtx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to get server version for %s: %w", c.Name, res.err)
		}
		return res.version, nil
	}
}

// String returns a string representation of the client
func (c *Client) String() string {
	return fmt.Sprintf("Client{Name: %s, Context: %s}", c.Name, c.Context)
}
