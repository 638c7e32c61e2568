package videostream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sentineld/sentinel/internal/reactive"
)

// ReactiveVideoStream drives a Stream on a single background task, fanning
// every decoded Frame out to a reactive.Subject. Grounded on the teacher's
// events.Processor.pollCamera ticker-driven pull loop, generalised from a
// polling ticker to a suspend-until-ready NextFrame call.
type ReactiveVideoStream struct {
	subject *reactive.Subject[Frame]
	raw     Stream
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New constructs a ReactiveVideoStream over raw. onObserverErr, if non-nil,
// receives errors raised by subscribers' Observer methods (never cancels
// peers; see reactive.Subject.OnObserverError).
func New(raw Stream, onObserverErr func(error)) *ReactiveVideoStream {
	s := reactive.NewSubject[Frame]()
	s.OnObserverError = onObserverErr
	return &ReactiveVideoStream{subject: s, raw: raw}
}

// Subscribe attaches obs to the underlying Subject.
func (r *ReactiveVideoStream) Subscribe(ctx context.Context, obs reactive.Observer[Frame]) reactive.Subscription {
	return r.subject.Subscribe(ctx, obs)
}

// Start runs the pull loop until ctx is cancelled, the source reports
// end-of-stream, or a transport error occurs. It returns nil only on
// orderly cancellation; any other return is an error the caller's
// task-completion handler should treat as a source failure.
func (r *ReactiveVideoStream) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	r.running.Store(true)
	defer r.running.Store(false)

	for r.running.Load() {
		frame, err := r.raw.NextFrame(runCtx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			r.subject.Throw(runCtx, err)
			return err
		}
		if frame == nil {
			r.subject.Throw(runCtx, ErrNoData)
			return ErrNoData
		}
		r.subject.Send(runCtx, *frame)
	}
	return nil
}

// Stop ends the pull loop — cancelling any NextFrame call Start is
// currently suspended in — runs the source's CleanUp, and closes the
// Subject so downstream observers see a terminal notification.
func (r *ReactiveVideoStream) Stop(cleanupCtx context.Context) error {
	r.running.Store(false)
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	err := r.raw.CleanUp(cleanupCtx)
	r.subject.Close(cleanupCtx)
	return err
}
