package decoration

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mschirtzinger/stagehand/internal/batch"
	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// EnabledKey is the setting that turns decorations on and off.
const EnabledKey = "decorations.enabled"

// Settings is the configuration a Manager follows.
type Settings interface {
	Bool(key string) bool
	OnDidChange(fn func(key string)) (unsubscribe func())
}

type providers struct {
	status *Provider
	ignore *IgnoreProvider
}

func (p providers) dispose() {
	p.status.Dispose()
	p.ignore.Dispose()
}

// Manager attaches providers to every open repository while decorations
// are enabled.
type Manager struct {
	reg         *registry.Registry
	bus         *Bus
	log         zerolog.Logger
	ignoreDelay time.Duration

	mu        sync.Mutex
	enabled   bool
	providers map[*repository.Repository]providers
	listeners []func()
	unsetting func()
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// WithIgnoreDelay sets the ignore lookup debounce window.
func WithIgnoreDelay(d time.Duration) ManagerOption {
	return func(m *Manager) { m.ignoreDelay = d }
}

// NewManager creates a manager publishing on bus. When settings is
// non-nil the manager follows EnabledKey; otherwise it starts enabled.
func NewManager(reg *registry.Registry, bus *Bus, settings Settings, opts ...ManagerOption) *Manager {
	m := &Manager{
		reg:         reg,
		bus:         bus,
		log:         zerolog.Nop(),
		ignoreDelay: batch.DefaultDelay,
		providers:   make(map[*repository.Repository]providers),
	}
	for _, opt := range opts {
		opt(m)
	}

	if settings == nil {
		m.SetEnabled(true)
		return m
	}

	m.SetEnabled(settings.Bool(EnabledKey))
	m.unsetting = settings.OnDidChange(func(key string) {
		if key == EnabledKey {
			m.SetEnabled(settings.Bool(EnabledKey))
		}
	})
	return m
}

// Bus returns the bus changes are published on.
func (m *Manager) Bus() *Bus { return m.bus }

// Enabled reports whether providers are attached.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// SetEnabled attaches or detaches providers.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	if enabled == m.enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = enabled

	if !enabled {
		listeners, attached := m.listeners, m.providers
		m.listeners = nil
		m.providers = make(map[*repository.Repository]providers)
		m.mu.Unlock()

		for _, stop := range listeners {
			stop()
		}
		for _, p := range attached {
			p.dispose()
		}
		m.log.Debug().Msg("decorations disabled")
		return
	}
	m.mu.Unlock()

	listeners := []func(){m.reg.OnDidOpen(m.attach), m.reg.OnDidClose(m.detach)}
	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		for _, stop := range listeners {
			stop()
		}
		return
	}
	m.listeners = append(m.listeners, listeners...)
	m.mu.Unlock()

	for _, repo := range m.reg.List() {
		m.attach(repo)
	}
	m.log.Debug().Msg("decorations enabled")
}

// attach builds providers for repo outside the lock, since building one
// publishes its initial snapshot.
func (m *Manager) attach(repo *repository.Repository) {
	if !m.wants(repo) {
		return
	}

	p := providers{
		status: NewProvider(repo, m.bus),
		ignore: NewIgnoreProvider(repo, m.bus, m.ignoreDelay, m.log),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[repo]; ok || !m.enabled {
		p.dispose()
		return
	}
	m.providers[repo] = p
}

func (m *Manager) wants(repo *repository.Repository) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.providers[repo]
	return m.enabled && !ok
}

func (m *Manager) detach(repo *repository.Repository) {
	m.mu.Lock()
	p, ok := m.providers[repo]
	delete(m.providers, repo)
	m.mu.Unlock()

	if ok {
		p.dispose()
	}
}

func (m *Manager) lookup(path string) (providers, bool) {
	repo := m.reg.Get(path)
	if repo == nil {
		return providers{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[repo]
	return p, ok
}

// Decoration returns the decoration of path: its status decoration when
// it has one, otherwise the ignored decoration when it is ignored.
func (m *Manager) Decoration(ctx context.Context, path string) (repository.Decoration, bool, error) {
	p, ok := m.lookup(path)
	if !ok {
		return repository.Decoration{}, false, nil
	}
	if d, ok := p.status.Decoration(path); ok {
		return d, true, nil
	}
	return p.ignore.Decoration(ctx, path)
}

// Snapshot returns the status decorations of the repository at root.
func (m *Manager) Snapshot(root string) Snapshot {
	p, ok := m.lookup(root)
	if !ok {
		return nil
	}
	return p.status.Snapshot()
}

// NotifyFileSaved forwards a saved file to the owning ignore provider.
func (m *Manager) NotifyFileSaved(path string) {
	if p, ok := m.lookup(path); ok {
		p.ignore.NotifyFileSaved(path)
	}
}

// Close detaches every provider and stops following settings.
func (m *Manager) Close() {
	m.SetEnabled(false)
	if m.unsetting != nil {
		m.unsetting()
	}
}
