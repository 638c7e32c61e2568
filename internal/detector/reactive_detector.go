package detector

import (
	"context"
	"sync"
	"time"

	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/sentineld/sentinel/internal/videostream"
)

// ReactiveDetector subscribes to a ReactiveVideoStream's frames and
// publishes a DetectionResult for every frame: a real run of the detector
// when the configured interval has elapsed since the last run, an empty
// result otherwise. It implements reactive.Observer[videostream.Frame] so a
// video stream can attach it directly.
//
// A per-frame detector failure is logged (via OnDetectError) and converted
// into an empty DetectionResult rather than thrown on the Subject: one bad
// frame must not tear down a pipeline that the upstream stream is still
// feeding correctly. A throw on the Subject is reserved for the upstream
// stream itself terminating, which this detector has no choice but to
// propagate since no further frames are coming.
type ReactiveDetector struct {
	subject  *reactive.Subject[DetectionResult]
	raw      Detector
	interval time.Duration

	mu     sync.Mutex
	lastAt time.Time

	// OnDetectError, if non-nil, is called with the error from a failed
	// per-frame Detect call.
	OnDetectError func(err error)
}

// New constructs a ReactiveDetector wrapping raw, gating real detection
// runs to at most once per interval. interval <= 0 disables gating: every
// frame is detected.
func New(raw Detector, interval time.Duration, onObserverErr func(error)) *ReactiveDetector {
	s := reactive.NewSubject[DetectionResult]()
	s.OnObserverError = onObserverErr
	return &ReactiveDetector{subject: s, raw: raw, interval: interval}
}

// Subscribe attaches obs to the detector's result Subject.
func (d *ReactiveDetector) Subscribe(ctx context.Context, obs reactive.Observer[DetectionResult]) reactive.Subscription {
	return d.subject.Subscribe(ctx, obs)
}

// OnNext implements reactive.Observer: it is invoked by the upstream video
// stream's Subject.Send for every frame.
func (d *ReactiveDetector) OnNext(ctx context.Context, f videostream.Frame) error {
	if !d.shouldRun() {
		d.subject.Send(ctx, DetectionResult{Frame: f})
		return nil
	}

	result, err := d.raw.Detect(ctx, f)
	if err != nil {
		if d.OnDetectError != nil {
			d.OnDetectError(err)
		}
		d.subject.Send(ctx, DetectionResult{Frame: f})
		return nil
	}
	d.subject.Send(ctx, result)
	return nil
}

// OnError implements reactive.Observer: the upstream stream failed, so this
// detector's own Subject terminates the same way.
func (d *ReactiveDetector) OnError(ctx context.Context, err error) error {
	d.subject.Throw(ctx, err)
	return nil
}

// OnClose implements reactive.Observer: the upstream stream closed in an
// orderly fashion (Stop was called), so this detector's Subject closes too.
func (d *ReactiveDetector) OnClose(ctx context.Context) error {
	d.subject.Close(ctx)
	return nil
}

func (d *ReactiveDetector) shouldRun() bool {
	if d.interval <= 0 {
		return true
	}
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if now.Sub(d.lastAt) < d.interval {
		return false
	}
	d.lastAt = now
	return true
}
