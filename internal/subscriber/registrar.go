// Package subscriber implements the bipartite subscription graph between
// alert emitters (video sources, or a Cooldown wrapping one) and alert
// subscribers, plus the lifecycle manager that creates, enables, disables
// and deletes subscriber components.
package subscriber

import (
	"context"
	"errors"
	"sync"

	"github.com/sentineld/sentinel/internal/alert"
	"go.uber.org/zap"
)

// ErrAlreadyRegistered is returned when AddSubscriber or AddEmitter is
// called with an id that is already registered. Callers must RemoveSubscriber/
// RemoveEmitter first; there is no implicit replace.
var ErrAlreadyRegistered = errors.New("subscriber: id already registered")

// Registrar drives every registered Emitter on its own goroutine, pulling
// alerts and fanning each one out to every currently-registered Subscriber.
// Emitters and subscribers are added/removed independently and take effect
// on the very next delivery, so a VideoSourceManager can register/
// deregister a source's emitter without the SubscriberManager's subscriber
// set changing at all, and vice versa — the two managers never need to
// coordinate directly.
type Registrar struct {
	mu          sync.Mutex
	emitters    map[string]func()
	subscribers map[string]alert.Subscriber
	logger      *zap.Logger
}

// NewRegistrar constructs an empty Registrar.
func NewRegistrar(logger *zap.Logger) *Registrar {
	return &Registrar{
		emitters:    make(map[string]func()),
		subscribers: make(map[string]alert.Subscriber),
		logger:      logger,
	}
}

// AddSubscriber attaches s under id. It returns ErrAlreadyRegistered if id
// is already registered; RemoveSubscriber it first to replace.
func (r *Registrar) AddSubscriber(id string, s alert.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subscribers[id]; ok {
		return ErrAlreadyRegistered
	}
	r.subscribers[id] = s
	return nil
}

// RemoveSubscriber detaches the subscriber registered under id, if any.
func (r *Registrar) RemoveSubscriber(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, id)
}

// AddEmitter starts a driver task pulling from e and delivering to every
// current subscriber. It returns ErrAlreadyRegistered if id is already
// registered; RemoveEmitter it first to replace.
func (r *Registrar) AddEmitter(id string, e alert.Emitter) error {
	r.mu.Lock()
	if _, ok := r.emitters[id]; ok {
		r.mu.Unlock()
		return ErrAlreadyRegistered
	}
	r.mu.Unlock()

	stop := alert.Pump(e, r.deliver)

	r.mu.Lock()
	r.emitters[id] = stop
	r.mu.Unlock()
	return nil
}

// RemoveEmitter stops the driver task registered under id and waits for it
// to exit before returning.
func (r *Registrar) RemoveEmitter(id string) {
	r.mu.Lock()
	stop, ok := r.emitters[id]
	delete(r.emitters, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	stop()
}

func (r *Registrar) deliver(ctx context.Context, a alert.Alert) {
	r.mu.Lock()
	subs := make([]alert.Subscriber, 0, len(r.subscribers))
	for _, s := range r.subscribers {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		if err := s.Notify(ctx, a); err != nil {
			r.logger.Warn("subscriber notify failed", zap.String("source", a.Source), zap.Error(err))
		}
	}
}
