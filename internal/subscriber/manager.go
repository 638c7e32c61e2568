package subscriber

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sentineld/sentinel/internal/alert"
	"github.com/sentineld/sentinel/internal/plugin"
	"github.com/sentineld/sentinel/internal/reactive"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Manager operations on an unknown subscriber ID.
var ErrNotFound = errors.New("subscriber: not found")

// ErrComponentNotFound is returned when a ManagedSubscriber's configured
// plugin/component pair no longer resolves in the registry.
var ErrComponentNotFound = errors.New("subscriber: component not found or not a subscriber kind")

// ManagedSubscriber is a persisted, lifecycle-managed subscriber component.
type ManagedSubscriber struct {
	ID            uuid.UUID
	Name          string
	Enabled       bool
	PluginName    string
	ComponentName string
	Config        map[string]any
}

// Repository persists ManagedSubscribers.
type Repository interface {
	Create(ctx context.Context, s ManagedSubscriber) (ManagedSubscriber, error)
	Update(ctx context.Context, s ManagedSubscriber) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]ManagedSubscriber, error)
}

// Manager owns the set of persisted subscribers and their live registration
// with a Registrar. Enabling a subscriber builds its concrete instance from
// the plugin registry (adapting a sync component through pool) and attaches
// it to the registrar; disabling detaches it without forgetting the
// persisted configuration.
type Manager struct {
	mu          sync.RWMutex
	repo        Repository
	registry    *plugin.Registry
	registrar   *Registrar
	pool        *reactive.WorkerPool
	logger      *zap.Logger
	subscribers map[uuid.UUID]ManagedSubscriber
}

// NewManager constructs a subscriber Manager.
func NewManager(repo Repository, registry *plugin.Registry, registrar *Registrar, pool *reactive.WorkerPool, logger *zap.Logger) *Manager {
	return &Manager{
		repo:        repo,
		registry:    registry,
		registrar:   registrar,
		pool:        pool,
		logger:      logger,
		subscribers: make(map[uuid.UUID]ManagedSubscriber),
	}
}

// LoadPersisted populates the manager from storage at startup, enabling
// every subscriber the repository reports as Enabled. Called once during
// the global lifecycle's init order, after the registry has loaded its
// whitelisted plugins.
func (m *Manager) LoadPersisted(ctx context.Context) error {
	persisted, err := m.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range persisted {
		m.mu.Lock()
		m.subscribers[s.ID] = s
		m.mu.Unlock()
		if s.Enabled {
			if err := m.attach(s); err != nil {
				m.logger.Error("failed to re-attach subscriber on startup",
					zap.String("name", s.Name), zap.Error(err))
			}
		}
	}
	return nil
}

// Create persists a new, initially disabled subscriber.
func (m *Manager) Create(ctx context.Context, name, pluginName, componentName string, config map[string]any) (ManagedSubscriber, error) {
	if _, ok := m.componentFor(pluginName, componentName); !ok {
		return ManagedSubscriber{}, ErrComponentNotFound
	}

	s := ManagedSubscriber{
		ID:            uuid.New(),
		Name:          name,
		Enabled:       false,
		PluginName:    pluginName,
		ComponentName: componentName,
		Config:        config,
	}
	persisted, err := m.repo.Create(ctx, s)
	if err != nil {
		return ManagedSubscriber{}, err
	}

	m.mu.Lock()
	m.subscribers[persisted.ID] = persisted
	m.mu.Unlock()
	return persisted, nil
}

// Enable builds the subscriber's concrete component and attaches it to the
// registrar. Enabling an already-enabled subscriber is a no-op.
func (m *Manager) Enable(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.subscribers[id]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if s.Enabled {
		return nil
	}
	if err := m.attach(s); err != nil {
		return err
	}
	s.Enabled = true
	m.mu.Lock()
	m.subscribers[id] = s
	m.mu.Unlock()
	return m.repo.Update(ctx, s)
}

// Disable detaches the subscriber from the registrar. The persisted
// configuration is kept so a later Enable rebuilds the same component.
func (m *Manager) Disable(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.subscribers[id]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.registrar.RemoveSubscriber(id.String())
	s.Enabled = false
	m.mu.Lock()
	m.subscribers[id] = s
	m.mu.Unlock()
	return m.repo.Update(ctx, s)
}

// Delete disables (if enabled) and permanently removes the subscriber.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	if err := m.Disable(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	m.mu.Lock()
	delete(m.subscribers, id)
	m.mu.Unlock()
	return m.repo.Delete(ctx, id)
}

// Get returns the subscriber registered under id.
func (m *Manager) Get(id uuid.UUID) (ManagedSubscriber, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subscribers[id]
	return s, ok
}

// List returns every known subscriber.
func (m *Manager) List() []ManagedSubscriber {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ManagedSubscriber, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		out = append(out, s)
	}
	return out
}

func (m *Manager) attach(s ManagedSubscriber) error {
	desc, ok := m.componentFor(s.PluginName, s.ComponentName)
	if !ok {
		return ErrComponentNotFound
	}
	built, err := desc.Build(s.Config)
	if err != nil {
		return err
	}

	var impl alert.Subscriber
	if desc.Kind == plugin.KindSyncSubscriber {
		sync, ok := built.(alert.SyncSubscriber)
		if !ok {
			return ErrComponentNotFound
		}
		impl = alert.Adapt(sync, m.pool)
	} else {
		impl, ok = built.(alert.Subscriber)
		if !ok {
			return ErrComponentNotFound
		}
	}

	return m.registrar.AddSubscriber(s.ID.String(), impl)
}

func (m *Manager) componentFor(pluginName, componentName string) (plugin.ComponentDescriptor, bool) {
	desc, ok := m.registry.FindByName(pluginName, componentName)
	if !ok || !desc.Kind.IsSubscriber() {
		return plugin.ComponentDescriptor{}, false
	}
	return desc, true
}
