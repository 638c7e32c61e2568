package source

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sentineld/sentinel/internal/alert"
	"github.com/sentineld/sentinel/internal/detector"
	"github.com/sentineld/sentinel/internal/plugin"
	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/sentineld/sentinel/internal/subscriber"
	"github.com/sentineld/sentinel/internal/videostream"
	"go.uber.org/zap"
)

// AlertHistory is the subset of alert.Manager a VideoSourceManager needs:
// tombstoning a deleted source's alert history without depending on
// internal/alert's full surface (or creating an import cycle, since
// internal/alert never imports internal/source).
type AlertHistory interface {
	MarkSourceDeleted(ctx context.Context, sourceName string) error
}

// Repository persists VideoSources.
type Repository interface {
	Create(ctx context.Context, s VideoSource) (VideoSource, error)
	Update(ctx context.Context, s VideoSource) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]VideoSource, error)
}

// runtime holds the live pipeline for one enabled VideoSource: the
// component instances, the subscriptions chaining them together, and the
// channel that closes once the driver task has exited.
type runtime struct {
	stream       *videostream.ReactiveVideoStream
	det          *detector.ReactiveDetector
	rawEmitter   *alert.VideoSourceAlertEmitter
	stopCooldown func()
	streamSub    reactive.Subscription
	detSub       reactive.Subscription
	taskDone     chan struct{}
}

type entry struct {
	source VideoSource
	rt     *runtime
}

// Manager owns every VideoSource's persisted configuration and, for the
// enabled ones, the live detection pipeline feeding the shared
// subscriber.Registrar. Grounded on the teacher's camera.Manager
// (map-of-entities + repository-backed CRUD + health monitoring), expanded
// to the enable/disable/delete protocol spec.md's VideoSourceManager
// describes.
type Manager struct {
	mu        sync.Mutex
	repo      Repository
	registry  *plugin.Registry
	registrar *subscriber.Registrar
	pool      *reactive.WorkerPool
	logger    *zap.Logger
	queueSize int
	entries   map[uuid.UUID]*entry
	history   AlertHistory

	// OnStatusChange, if set, is invoked (outside the manager's lock)
	// whenever a source's Status changes, e.g. to push it onto a live
	// observer subject.
	OnStatusChange func(VideoSource)
}

// NewManager constructs a VideoSourceManager. queueSize bounds each
// source's alert backlog (see alert.VideoSourceAlertEmitter). history may
// be nil, in which case Delete skips tombstoning alert history.
func NewManager(repo Repository, registry *plugin.Registry, registrar *subscriber.Registrar, pool *reactive.WorkerPool, logger *zap.Logger, queueSize int, history AlertHistory) *Manager {
	return &Manager{
		repo:      repo,
		registry:  registry,
		registrar: registrar,
		pool:      pool,
		logger:    logger,
		queueSize: queueSize,
		entries:   make(map[uuid.UUID]*entry),
		history:   history,
	}
}

// LoadPersisted populates the manager from storage at startup, starting the
// pipeline for every source the repository reports as Enabled. Called once
// during the global lifecycle's init order, after the plugin registry has
// loaded its whitelisted components.
func (m *Manager) LoadPersisted(ctx context.Context) error {
	sources, err := m.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range sources {
		m.mu.Lock()
		m.entries[s.ID] = &entry{source: s}
		m.mu.Unlock()
		if s.Enabled {
			if err := m.Enable(ctx, s.ID); err != nil {
				m.logger.Error("failed to start video source on startup",
					zap.String("name", s.Name), zap.Error(err))
			}
		}
	}
	return nil
}

// Create persists a new, initially disabled VideoSource, validating that
// both its video-stream and detector components resolve in the registry.
func (m *Manager) Create(ctx context.Context, s VideoSource) (VideoSource, error) {
	if _, _, ok := m.resolveComponents(s); !ok {
		return VideoSource{}, ErrComponentNotFound
	}
	s.ID = uuid.New()
	s.Enabled = false
	s.Status = StatusOK

	persisted, err := m.repo.Create(ctx, s)
	if err != nil {
		return VideoSource{}, err
	}

	m.mu.Lock()
	m.entries[persisted.ID] = &entry{source: persisted}
	m.mu.Unlock()
	return persisted, nil
}

// Get returns the source registered under id.
func (m *Manager) Get(id uuid.UUID) (VideoSource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return VideoSource{}, false
	}
	return e.source, true
}

// List returns every known source.
func (m *Manager) List() []VideoSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]VideoSource, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.source)
	}
	return out
}

// Enable builds the video-stream and detector components, wires them into
// a ReactiveVideoStream → ReactiveDetector → VideoSourceAlertEmitter chain
// (optionally behind a Cooldown), registers the resulting Emitter with the
// shared Registrar, and starts the driver task. Enabling an already-enabled
// source is a no-op.
func (m *Manager) Enable(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if e.rt != nil {
		m.mu.Unlock()
		return nil
	}
	s := e.source
	m.mu.Unlock()

	vidDesc, detDesc, ok := m.resolveComponents(s)
	if !ok {
		return m.failEnable(ctx, id, ErrComponentNotFound)
	}

	rawStream, err := vidDesc.Build(s.VidstreamConfig)
	if err != nil {
		return m.failEnable(ctx, id, err)
	}
	stream, err := m.toStream(vidDesc.Kind, rawStream)
	if err != nil {
		return m.failEnable(ctx, id, err)
	}

	rawDet, err := detDesc.Build(s.DetectorConfig)
	if err != nil {
		return m.failEnable(ctx, id, err)
	}
	det, err := m.toDetector(detDesc.Kind, rawDet)
	if err != nil {
		return m.failEnable(ctx, id, err)
	}

	logObserverErr := func(err error) {
		m.logger.Warn("observer error in video source pipeline", zap.String("source", s.Name), zap.Error(err))
	}

	rvs := videostream.New(stream, logObserverErr)
	interval := time.Duration(s.DetectIntervalSeconds * float64(time.Second))
	rdet := detector.New(det, interval, logObserverErr)
	rdet.OnDetectError = func(err error) {
		m.logger.Warn("detector failed on frame", zap.String("source", s.Name), zap.Error(err))
	}

	streamSub := rvs.Subscribe(ctx, rdet)
	emitter := alert.NewVideoSourceAlertEmitter(s.Name, m.queueSize)
	detSub := rdet.Subscribe(ctx, emitter)

	var finalEmitter alert.Emitter = emitter
	var stopCooldown func()
	if s.CooldownSeconds > 0 {
		cd := alert.NewCooldown(time.Duration(s.CooldownSeconds*float64(time.Second)), m.queueSize)
		stopCooldown = alert.Pump(emitter, func(ctx context.Context, a alert.Alert) {
			_ = cd.Notify(ctx, a)
		})
		finalEmitter = cd
	}

	if err := m.registrar.AddEmitter(id.String(), finalEmitter); err != nil {
		detSub.Dispose()
		streamSub.Dispose()
		return m.failEnable(ctx, id, err)
	}

	rt := &runtime{
		stream:       rvs,
		det:          rdet,
		rawEmitter:   emitter,
		stopCooldown: stopCooldown,
		streamSub:    streamSub,
		detSub:       detSub,
		taskDone:     make(chan struct{}),
	}

	go func() {
		defer close(rt.taskDone)
		startErr := rvs.Start(context.Background())
		if startErr != nil {
			_ = rvs.Stop(context.Background())
			m.handleTaskFailure(id, startErr)
		}
	}()

	m.mu.Lock()
	e.source.Enabled = true
	e.source.Status = StatusOK
	e.source.LastError = ""
	e.rt = rt
	updated := e.source
	m.mu.Unlock()

	if err := m.repo.Update(ctx, updated); err != nil {
		return err
	}
	m.notifyStatus(updated)
	return nil
}

// failEnable records an Enable failure as Status=Error with no live
// handles, preserving Enabled so a later restart/registry reload can retry
// without the operator having to re-enable the source, per the invariant
// that an enabled source always has either live handles or Error status.
func (m *Manager) failEnable(ctx context.Context, id uuid.UUID, cause error) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return cause
	}
	e.source.Enabled = true
	e.source.Status = StatusError
	e.source.LastError = cause.Error()
	e.rt = nil
	updated := e.source
	m.mu.Unlock()

	if err := m.repo.Update(ctx, updated); err != nil {
		m.logger.Error("failed to persist Error status after failed enable",
			zap.String("source", updated.Name), zap.Error(err))
	}
	m.notifyStatus(updated)
	return cause
}

// Disable stops the pipeline and deregisters its emitter, leaving the
// persisted configuration untouched so a later Enable rebuilds the same
// pipeline.
func (m *Manager) Disable(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if !e.source.Enabled {
		m.mu.Unlock()
		return nil
	}
	rt := e.rt
	m.mu.Unlock()

	m.teardown(id, rt)

	m.mu.Lock()
	e.source.Enabled = false
	e.rt = nil
	updated := e.source
	m.mu.Unlock()

	return m.repo.Update(ctx, updated)
}

// Delete disables (if enabled) and permanently removes the source, then
// tombstones its alert history.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if e.source.Enabled {
		if err := m.Disable(ctx, id); err != nil {
			return err
		}
	}

	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()

	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}
	if m.history != nil {
		return m.history.MarkSourceDeleted(ctx, e.source.Name)
	}
	return nil
}

func (m *Manager) teardown(id uuid.UUID, rt *runtime) {
	if rt == nil {
		return
	}
	m.registrar.RemoveEmitter(id.String())
	if rt.stopCooldown != nil {
		rt.stopCooldown()
	}
	rt.detSub.Dispose()
	rt.streamSub.Dispose()
	_ = rt.stream.Stop(context.Background())
	<-rt.taskDone
}

func (m *Manager) handleTaskFailure(id uuid.UUID, taskErr error) {
	m.registrar.RemoveEmitter(id.String())

	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	e.source.Status = StatusError
	e.source.LastError = taskErr.Error()
	updated := e.source
	m.mu.Unlock()

	m.logger.Error("video source pipeline failed", zap.String("source", updated.Name), zap.Error(taskErr))
	if err := m.repo.Update(context.Background(), updated); err != nil {
		m.logger.Error("failed to persist source error status", zap.String("source", updated.Name), zap.Error(err))
	}
	m.notifyStatus(updated)
}

func (m *Manager) notifyStatus(s VideoSource) {
	if m.OnStatusChange != nil {
		m.OnStatusChange(s)
	}
}

func (m *Manager) resolveComponents(s VideoSource) (plugin.ComponentDescriptor, plugin.ComponentDescriptor, bool) {
	vidDesc, ok := m.registry.FindByName(s.VidstreamPluginName, s.VidstreamComponentName)
	if !ok || !vidDesc.Kind.IsVideoStream() {
		return plugin.ComponentDescriptor{}, plugin.ComponentDescriptor{}, false
	}
	detDesc, ok := m.registry.FindByName(s.DetectorPluginName, s.DetectorComponentName)
	if !ok || !detDesc.Kind.IsDetector() {
		return plugin.ComponentDescriptor{}, plugin.ComponentDescriptor{}, false
	}
	return vidDesc, detDesc, true
}

func (m *Manager) toStream(kind plugin.ComponentKind, built any) (videostream.Stream, error) {
	if kind == plugin.KindSyncVideoStream {
		raw, ok := built.(videostream.SyncStream)
		if !ok {
			return nil, ErrComponentNotFound
		}
		return videostream.Adapt(raw, m.pool), nil
	}
	raw, ok := built.(videostream.Stream)
	if !ok {
		return nil, ErrComponentNotFound
	}
	return raw, nil
}

func (m *Manager) toDetector(kind plugin.ComponentKind, built any) (detector.Detector, error) {
	if kind == plugin.KindSyncDetector {
		raw, ok := built.(detector.SyncDetector)
		if !ok {
			return nil, ErrComponentNotFound
		}
		return detector.Adapt(raw, m.pool), nil
	}
	raw, ok := built.(detector.Detector)
	if !ok {
		return nil, ErrComponentNotFound
	}
	return raw, nil
}
