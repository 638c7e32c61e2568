package alert

import (
	"context"

	"github.com/sentineld/sentinel/internal/reactive"
	"go.uber.org/zap"
)

// Repository persists Alerts and serves them back for lookback queries. The
// concrete implementation (internal/storage/repository) is a thin SQL
// wrapper; alert depends only on this interface to avoid importing storage.
type Repository interface {
	Create(ctx context.Context, a Alert) (ManagedAlert, error)
	List(ctx context.Context, sourceName string, limit int) ([]ManagedAlert, error)
	MarkSourceDeleted(ctx context.Context, sourceName string) error
}

// Manager is the always-on aux Subscriber attached to every emitter in the
// registrar: it persists every alert it's notified of and republishes the
// persisted ManagedAlert on its own Subject for live observers (the
// WebSocket/SSE alert-tailing endpoints).
type Manager struct {
	repo    Repository
	logger  *zap.Logger
	subject *reactive.Subject[ManagedAlert]
}

// NewManager constructs an AlertManager backed by repo.
func NewManager(repo Repository, logger *zap.Logger) *Manager {
	s := reactive.NewSubject[ManagedAlert]()
	s.OnObserverError = func(err error) {
		logger.Warn("alert manager observer error", zap.Error(err))
	}
	return &Manager{repo: repo, logger: logger, subject: s}
}

// Notify implements Subscriber.
func (m *Manager) Notify(ctx context.Context, a Alert) error {
	managed, err := m.repo.Create(ctx, a)
	if err != nil {
		m.logger.Error("persist alert failed", zap.String("source", a.Source), zap.Error(err))
		return err
	}
	m.subject.Send(ctx, managed)
	return nil
}

// Subscribe attaches obs to the manager's live ManagedAlert Subject.
func (m *Manager) Subscribe(ctx context.Context, obs reactive.Observer[ManagedAlert]) reactive.Subscription {
	return m.subject.Subscribe(ctx, obs)
}

// List returns persisted alerts for sourceName (or every source when
// sourceName is empty), most recent first, capped at limit.
func (m *Manager) List(ctx context.Context, sourceName string, limit int) ([]ManagedAlert, error) {
	return m.repo.List(ctx, sourceName, limit)
}

// MarkSourceDeleted tombstones every persisted alert for sourceName so
// history survives the VideoSource's deletion.
func (m *Manager) MarkSourceDeleted(ctx context.Context, sourceName string) error {
	return m.repo.MarkSourceDeleted(ctx, sourceName)
}

// Close terminates the live Subject, notifying any attached UI observers.
func (m *Manager) Close(ctx context.Context) {
	m.subject.Close(ctx)
}
