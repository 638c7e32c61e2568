// Package videostream turns a plugin-supplied video source, sync or async,
// into a ReactiveVideoStream: a Subject of Frames driven by a single
// background task per source.
package videostream

import (
	"context"
	"errors"
	"time"

	"github.com/sentineld/sentinel/internal/reactive"
)

// ErrNoData is thrown on a stream's Subject when the underlying source
// signals end-of-stream (a nil frame with no error) rather than a
// transport-level failure. Per the resolved reading of the no-data open
// question, it is terminal for the Subject; the owning VideoSource's
// lifecycle manager observes the driver task's completion and moves the
// source to Error so an operator (or a future auto-retry policy) can react.
var ErrNoData = errors.New("videostream: source returned no data")

// Frame is one decoded image plus its capture time.
type Frame struct {
	CapturedAt time.Time
	Width      int
	Height     int
	Channels   int
	Pixels     []byte
}

// Stream is the async video-stream plugin contract: NextFrame suspends
// until a frame is available, returns (nil, nil) at end of stream, and
// returns a non-nil error on failure. CleanUp releases resources exactly
// once, after the driver loop has stopped calling NextFrame.
type Stream interface {
	NextFrame(ctx context.Context) (*Frame, error)
	CleanUp(ctx context.Context) error
}

// SyncStream is the blocking variant: the same contract without a context,
// run through a reactive.WorkerPool by the sync→async adapter below.
type SyncStream interface {
	NextFrame() (*Frame, error)
	CleanUp() error
}

// syncAdapter adapts a SyncStream to Stream by offloading each blocking
// call onto a shared worker pool, per the core's sync→async adapter.
type syncAdapter struct {
	raw  SyncStream
	pool *reactive.WorkerPool
}

// Adapt wraps a SyncStream so it can be driven like an async Stream. pool
// bounds how many blocking NextFrame/CleanUp calls may run concurrently
// across all sync components sharing it.
func Adapt(raw SyncStream, pool *reactive.WorkerPool) Stream {
	return &syncAdapter{raw: raw, pool: pool}
}

func (a *syncAdapter) NextFrame(ctx context.Context) (*Frame, error) {
	return reactive.Offload(ctx, a.pool, a.raw.NextFrame)
}

func (a *syncAdapter) CleanUp(ctx context.Context) error {
	_, err := reactive.Offload(ctx, a.pool, func() (struct{}, error) {
		return struct{}{}, a.raw.CleanUp()
	})
	return err
}
