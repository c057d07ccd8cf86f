package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aryankumar/fleetexport/internal/config"
	"github.com/aryankumar/fleetexport/internal/util"
)

// maxConcurrentConnects limits how many clusters are set up at once
const maxConcurrentConnects = 10

// Manager holds connections to the clusters taking part in an export
type Manager struct {
	clients map[string]*Client
	mu      sync.RWMutex
	loader  *config.KubeconfigLoader
	logger  *slog.Logger
	closed  bool
}

// NewManager creates a new cluster manager
func NewManager(loader *config.KubeconfigLoader, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		clients: make(map[string]*Client),
		loader:  loader,
		logger:  logger,
	}
}

// Connect builds clients for every target concurrently
// Targets that fail are reported in the returned error; the others stay connected.
func (m *Manager) Connect(ctx context.Context, targets []config.Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("no clusters selected")
	}
	if m.loader == nil {
		return fmt.Errorf("no kubeconfig loader configured")
	}

	m.logger.Info("connecting to clusters", "count", len(targets))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs util.MultiError
	)
	fail := func(name string, err error) {
		mu.Lock()
		errs.Add(fmt.Errorf("cluster %s: %w", name, err))
		mu.Unlock()
	}

	sem := make(chan struct{}, maxConcurrentConnects)

	for _, target := range targets {
		wg.Add(1)

		go func(target config.Target) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				fail(target.Name, ctx.Err())
				return
			}

			restConfig, err := m.loader.BuildClientConfig(target.Context)
			if err != nil {
				m.logger.Error("failed to build client config", "cluster", target.Name, "error", err)
				fail(target.Name, err)
				return
			}

			client, err := NewClient(target.Name, target.Context, restConfig, m.logger)
			if err != nil {
				m.logger.Error("failed to create client", "cluster", target.Name, "error", err)
				fail(target.Name, err)
				return
			}

			if err := m.Add(client); err != nil {
				fail(target.Name, err)
				return
			}

			m.logger.Debug("connected to cluster", "cluster", target.Name, "server", restConfig.Host)
		}(target)
	}

	wg.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		m.logger.Warn("some cluster connections failed",
			"total", len(targets),
			"failed", len(errs.Errors))
		return err
	}

	m.logger.Info("connected to all clusters", "count", len(targets))
	return nil
}

// ConnectAll connects to every context in the kubeconfig
func (m *Manager) ConnectAll(ctx context.Context) error {
	if m.loader == nil {
		return fmt.Errorf("no kubeconfig loader configured")
	}

	contexts, err := m.loader.GetContexts()
	if err != nil {
		return fmt.Errorf("failed to get contexts: %w", err)
	}
	if len(contexts) == 0 {
		return fmt.Errorf("no contexts found in kubeconfig")
	}

	targets := make([]config.Target, 0, len(contexts))
	for _, name := range contexts {
		targets = append(targets, config.Target{Name: name, Context: name})
	}
	return m.Connect(ctx, targets)
}

// Add registers an already built client
func (m *Manager) Add(client *Client) error {
	if client == nil {
		return fmt.Errorf("client cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("manager is closed")
	}
	if _, exists := m.clients[client.Name]; exists {
		return fmt.Errorf("cluster %q already connected", client.Name)
	}
	m.clients[client.Name] = client
	return nil
}

// Clients returns the connected clients sorted by name
func (m *Manager) Clients() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].Name < clients[j].Name
	})

	return clients
}

// Count returns the number of connected clusters
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// Versions probes every connected cluster and returns its server version
// Clusters that cannot be reached are logged and left out.
func (m *Manager) Versions(ctx context.Context) map[string]string {
	clients := m.Clients()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		versions = make(map[string]string, len(clients))
	)

	for _, client := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()

			v, err := c.ServerVersion(ctx)
			if err != nil {
				m.logger.Warn("cluster unreachable", "cluster", c.Name, "error", err)
				return
			}
			mu.Lock()
			versions[c.Name] = v
			mu.Unlock()
		}(client)
	}
	wg.Wait()

	return versions
}

// Close releases all clients
// The clientsets hold no long-lived resources, so this only drops references.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.logger.Debug("closing cluster manager", "clusters", len(m.clients))
	m.clients = make(map[string]*Client)
	m.closed = true
	return nil
}
