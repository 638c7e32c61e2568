package subscriber

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sentineld/sentinel/internal/alert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type queueEmitter struct {
	ch chan alert.Alert
}

func newQueueEmitter() *queueEmitter { return &queueEmitter{ch: make(chan alert.Alert, 8)} }

func (q *queueEmitter) NextAlert(ctx context.Context) (alert.Alert, error) {
	select {
	case a := <-q.ch:
		return a, nil
	case <-ctx.Done():
		return alert.Alert{}, ctx.Err()
	}
}

type recordingSubscriber struct {
	mu  sync.Mutex
	got []alert.Alert
}

func (r *recordingSubscriber) Notify(ctx context.Context, a alert.Alert) error {
	r.mu.Lock()
	r.got = append(r.got, a)
	r.mu.Unlock()
	return nil
}

func (r *recordingSubscriber) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestRegistrar_DeliversToAllCurrentSubscribers(t *testing.T) {
	r := NewRegistrar(zap.NewNop())
	sub1 := &recordingSubscriber{}
	sub2 := &recordingSubscriber{}
	r.AddSubscriber("s1", sub1)
	r.AddSubscriber("s2", sub2)

	e := newQueueEmitter()
	r.AddEmitter("cam-1", e)
	defer r.RemoveEmitter("cam-1")

	e.ch <- alert.Alert{Source: "cam-1"}

	require.Eventually(t, func() bool {
		return sub1.count() == 1 && sub2.count() == 1
	}, time.Second, time.Millisecond)
}

func TestRegistrar_RemoveSubscriberStopsDelivery(t *testing.T) {
	r := NewRegistrar(zap.NewNop())
	sub := &recordingSubscriber{}
	r.AddSubscriber("s1", sub)

	e := newQueueEmitter()
	r.AddEmitter("cam-1", e)
	defer r.RemoveEmitter("cam-1")

	e.ch <- alert.Alert{}
	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, time.Millisecond)

	r.RemoveSubscriber("s1")
	e.ch <- alert.Alert{}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sub.count())
}

func TestRegistrar_RemoveEmitterStopsDriverTask(t *testing.T) {
	r := NewRegistrar(zap.NewNop())
	e := newQueueEmitter()
	r.AddEmitter("cam-1", e)

	assert.NotPanics(t, func() { r.RemoveEmitter("cam-1") })
}

func TestRegistrar_AddSubscriberRejectsDuplicateID(t *testing.T) {
	r := NewRegistrar(zap.NewNop())
	require.NoError(t, r.AddSubscriber("s1", &recordingSubscriber{}))

	err := r.AddSubscriber("s1", &recordingSubscriber{})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistrar_AddEmitterRejectsDuplicateID(t *testing.T) {
	r := NewRegistrar(zap.NewNop())
	e := newQueueEmitter()
	require.NoError(t, r.AddEmitter("cam-1", e))
	defer r.RemoveEmitter("cam-1")

	err := r.AddEmitter("cam-1", newQueueEmitter())
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistrar_AddSubscriberMidStreamSeesSubsequentAlerts(t *testing.T) {
	r := NewRegistrar(zap.NewNop())
	e := newQueueEmitter()
	r.AddEmitter("cam-1", e)
	defer r.RemoveEmitter("cam-1")

	e.ch <- alert.Alert{Header: "before"}
	time.Sleep(10 * time.Millisecond)

	sub := &recordingSubscriber{}
	r.AddSubscriber("late", sub)

	e.ch <- alert.Alert{Header: "after"}
	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "after", sub.got[0].Header)
}
