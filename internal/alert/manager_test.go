package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepository struct {
	created []Alert
	err     error
}

func (f *fakeRepository) Create(ctx context.Context, a Alert) (ManagedAlert, error) {
	if f.err != nil {
		return ManagedAlert{}, f.err
	}
	f.created = append(f.created, a)
	return ManagedAlert{ID: uuid.New(), Alert: a}, nil
}

func (f *fakeRepository) List(ctx context.Context, sourceName string, limit int) ([]ManagedAlert, error) {
	return nil, nil
}

func (f *fakeRepository) MarkSourceDeleted(ctx context.Context, sourceName string) error {
	return nil
}

func TestManager_NotifyPersistsAndPublishes(t *testing.T) {
	repo := &fakeRepository{}
	m := NewManager(repo, zap.NewNop())

	var got ManagedAlert
	sub := m.Subscribe(context.Background(), reactive.FuncObserver[ManagedAlert]{
		NextFunc: func(ctx context.Context, a ManagedAlert) error {
			got = a
			return nil
		},
	})
	defer sub.Dispose()

	require.NoError(t, m.Notify(context.Background(), Alert{Source: "cam-1", Header: "motion"}))

	assert.Len(t, repo.created, 1)
	assert.Equal(t, "cam-1", got.Source)
	assert.NotEqual(t, uuid.Nil, got.ID)
}

func TestManager_NotifyPropagatesRepositoryError(t *testing.T) {
	boom := errors.New("db down")
	repo := &fakeRepository{err: boom}
	m := NewManager(repo, zap.NewNop())

	err := m.Notify(context.Background(), Alert{Source: "cam-1"})
	assert.ErrorIs(t, err, boom)
}
