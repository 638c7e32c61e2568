// Package reactive implements the multicast subject / observer / subscription
// primitives described by the orchestration core: a Subject fans a single
// stream of values out to any number of Observers, guarantees in-order
// delivery per observer, and exposes subscriptions as idempotent disposables.
package reactive

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed names the closed-without-error terminal state. Subject itself
// never returns it: a late Subscriber of a closed Subject receives OnClose.
var ErrClosed = errors.New("reactive: subject closed")

// Observer receives values, a terminal error, or a terminal close
// notification from a Subject. Every method may block. A single Send, Throw
// or Close call invokes observers one at a time; calls made concurrently
// from different goroutines are not serialised against each other.
type Observer[T any] interface {
	OnNext(ctx context.Context, value T) error
	OnError(ctx context.Context, err error) error
	OnClose(ctx context.Context) error
}

// Subscription is an idempotent disposable severing one observer's
// connection to the subject that produced it. Dispose never panics and is
// safe to call any number of times, including after the subject itself has
// terminated.
type Subscription interface {
	Dispose()
}

type noopSubscription struct{}

func (noopSubscription) Dispose() {}

// FuncObserver adapts plain functions to the Observer interface. A nil field
// is treated as a no-op.
type FuncObserver[T any] struct {
	NextFunc  func(ctx context.Context, value T) error
	ErrorFunc func(ctx context.Context, err error) error
	CloseFunc func(ctx context.Context) error
}

func (f FuncObserver[T]) OnNext(ctx context.Context, value T) error {
	if f.NextFunc == nil {
		return nil
	}
	return f.NextFunc(ctx, value)
}

func (f FuncObserver[T]) OnError(ctx context.Context, err error) error {
	if f.ErrorFunc == nil {
		return nil
	}
	return f.ErrorFunc(ctx, err)
}

func (f FuncObserver[T]) OnClose(ctx context.Context) error {
	if f.CloseFunc == nil {
		return nil
	}
	return f.CloseFunc(ctx)
}

type subjectState int

const (
	stateOpen subjectState = iota
	stateErrored
	stateClosed
)

// Subject is a multicast channel of values with explicit error/close
// terminals. The zero value is not usable; construct with NewSubject.
//
// Send, Throw and Close share a single mutex that guards the observer set
// and the terminal state only; it is released before observers are called.
// Two such calls made concurrently on the same Subject from different
// goroutines can therefore deliver to observers at the same time, and a
// Close can reach an observer while a Send is still delivering to it.
type Subject[T any] struct {
	mu        sync.Mutex
	observers map[uint64]Observer[T]
	nextID    uint64
	state     subjectState
	termErr   error

	// OnObserverError receives errors raised by an observer's OnNext/OnError/
	// OnClose. Peers are never cancelled because of it. Defaults to a no-op;
	// callers typically wire this to the component's logger.
	OnObserverError func(err error)
}

// NewSubject constructs an open Subject ready to accept subscribers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{observers: make(map[uint64]Observer[T])}
}

// Subscribe registers obs. Observers subscribed before the first Send see
// every subsequent value in order; a Subject that has already errored or
// closed delivers that terminal notification immediately and returns a
// no-op subscription.
func (s *Subject[T]) Subscribe(ctx context.Context, obs Observer[T]) Subscription {
	s.mu.Lock()
	switch s.state {
	case stateErrored:
		err := s.termErr
		s.mu.Unlock()
		s.reportObserverErr(obs.OnError(ctx, err))
		return noopSubscription{}
	case stateClosed:
		s.mu.Unlock()
		s.reportObserverErr(obs.OnClose(ctx))
		return noopSubscription{}
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = obs
	s.mu.Unlock()
	return &subscription[T]{subject: s, id: id}
}

// Send fans value out to every currently-subscribed observer, awaiting each
// in turn. A Subject that is not open silently drops the value.
func (s *Subject[T]) Send(ctx context.Context, value T) {
	s.mu.Lock()
	if s.state != stateOpen {
		s.mu.Unlock()
		return
	}
	observers := s.snapshotLocked()
	s.mu.Unlock()

	for _, obs := range observers {
		s.reportObserverErr(obs.OnNext(ctx, value))
	}
}

// Throw terminates the Subject with err: every current observer receives
// OnError, the Subject moves to the errored state, and subsequent Send calls
// become no-ops. Further Subscribe calls attach immediately in the errored
// state.
func (s *Subject[T]) Throw(ctx context.Context, err error) {
	s.mu.Lock()
	if s.state != stateOpen {
		s.mu.Unlock()
		return
	}
	s.state = stateErrored
	s.termErr = err
	observers := s.snapshotLocked()
	s.observers = nil
	s.mu.Unlock()

	for _, obs := range observers {
		s.reportObserverErr(obs.OnError(ctx, err))
	}
}

// Close terminates the Subject without error: every current observer
// receives OnClose. Subsequent calls are no-ops.
func (s *Subject[T]) Close(ctx context.Context) {
	s.mu.Lock()
	if s.state != stateOpen {
		s.mu.Unlock()
		return
	}
	s.state = stateClosed
	observers := s.snapshotLocked()
	s.observers = nil
	s.mu.Unlock()

	for _, obs := range observers {
		s.reportObserverErr(obs.OnClose(ctx))
	}
}

func (s *Subject[T]) snapshotLocked() []Observer[T] {
	out := make([]Observer[T], 0, len(s.observers))
	for _, obs := range s.observers {
		out = append(out, obs)
	}
	return out
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, id) // safe no-op if s.observers is nil (already terminal)
}

func (s *Subject[T]) reportObserverErr(err error) {
	if err == nil || s.OnObserverError == nil {
		return
	}
	s.OnObserverError(err)
}

type subscription[T any] struct {
	once    sync.Once
	subject *Subject[T]
	id      uint64
}

func (h *subscription[T]) Dispose() {
	h.once.Do(func() {
		h.subject.remove(h.id)
	})
}
