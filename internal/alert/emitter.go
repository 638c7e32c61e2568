package alert

import (
	"context"
	"errors"
	"sync"

	"github.com/sentineld/sentinel/internal/detector"
	"github.com/sentineld/sentinel/internal/reactive"
)

// ErrEmitterClosed is returned by NextAlert once an Emitter has terminated
// without an error and its backlog has been fully drained; an Emitter
// terminated with an error returns that error instead.
var ErrEmitterClosed = errors.New("alert: emitter closed")

// Emitter is the pull side of the alert pipeline: the registrar's driver
// task calls NextAlert in a loop, suspending when the emitter has nothing
// queued, and fans whatever it returns out to every attached Subscriber.
type Emitter interface {
	NextAlert(ctx context.Context) (Alert, error)
}

// boundedQueue is a fixed-capacity alert buffer that drops the oldest
// pending alert rather than blocking the producer when full, per the
// queue-bound design note: a stalled subscriber graph must not back-pressure
// the detector pipeline.
type boundedQueue struct {
	ch        chan Alert
	closed    chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	termErr   error
}

func newBoundedQueue(size int) *boundedQueue {
	if size <= 0 {
		size = 1
	}
	return &boundedQueue{ch: make(chan Alert, size), closed: make(chan struct{})}
}

func (q *boundedQueue) push(a Alert) {
	select {
	case q.ch <- a:
		return
	default:
	}
	select {
	case <-q.ch:
	default:
	}
	select {
	case q.ch <- a:
	default:
	}
}

func (q *boundedQueue) terminate(err error) {
	q.mu.Lock()
	if q.termErr == nil {
		if err == nil {
			err = ErrEmitterClosed
		}
		q.termErr = err
	}
	q.mu.Unlock()
	q.closeOnce.Do(func() { close(q.closed) })
}

func (q *boundedQueue) next(ctx context.Context) (Alert, error) {
	select {
	case a := <-q.ch:
		return a, nil
	case <-q.closed:
		select {
		case a := <-q.ch:
			return a, nil
		default:
		}
		q.mu.Lock()
		err := q.termErr
		q.mu.Unlock()
		return Alert{}, err
	case <-ctx.Done():
		return Alert{}, ctx.Err()
	}
}

// VideoSourceAlertEmitter observes a ReactiveDetector's DetectionResults and
// turns every non-empty result into a queued Alert. It implements
// reactive.Observer[detector.DetectionResult] so it attaches to a
// ReactiveDetector exactly like any other subscriber of detection results.
type VideoSourceAlertEmitter struct {
	sourceName string
	queue      *boundedQueue
}

// NewVideoSourceAlertEmitter constructs an emitter for sourceName, buffering
// up to queueSize pending alerts.
func NewVideoSourceAlertEmitter(sourceName string, queueSize int) *VideoSourceAlertEmitter {
	return &VideoSourceAlertEmitter{sourceName: sourceName, queue: newBoundedQueue(queueSize)}
}

func (e *VideoSourceAlertEmitter) OnNext(ctx context.Context, r detector.DetectionResult) error {
	if len(r.Detections) == 0 {
		return nil
	}
	e.queue.push(buildAlert(e.sourceName, r))
	return nil
}

func (e *VideoSourceAlertEmitter) OnError(ctx context.Context, err error) error {
	e.queue.terminate(err)
	return nil
}

func (e *VideoSourceAlertEmitter) OnClose(ctx context.Context) error {
	e.queue.terminate(nil)
	return nil
}

// NextAlert implements Emitter.
func (e *VideoSourceAlertEmitter) NextAlert(ctx context.Context) (Alert, error) {
	return e.queue.next(ctx)
}

var _ reactive.Observer[detector.DetectionResult] = (*VideoSourceAlertEmitter)(nil)
