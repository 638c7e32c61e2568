// Package detector turns a plugin-supplied detector, sync or async, into a
// ReactiveDetector: an Observer of video frames that re-publishes gated
// DetectionResults to its own Subject.
package detector

import (
	"context"

	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/sentineld/sentinel/internal/videostream"
)

// Category is one label attached to a Detection, with an optional
// confidence score (nil when the detector doesn't produce one).
type Category struct {
	Name  string
	Score *float64
}

// Detection is a single bounding box with one or more categories.
type Detection struct {
	X, Y          int
	Width, Height int
	Categories    []Category
}

// DetectionResult pairs the frame a detector examined with whatever it
// found; Detections is nil (not just empty) for frames the interval gate
// skipped or for a per-frame detector failure, both of which still flow
// downstream so subscribers see every frame's slot in the sequence.
type DetectionResult struct {
	Frame      videostream.Frame
	Detections []Detection
}

// Detector is the async detector plugin contract.
type Detector interface {
	Detect(ctx context.Context, f videostream.Frame) (DetectionResult, error)
}

// SyncDetector is the blocking variant, run through a reactive.WorkerPool
// by Adapt.
type SyncDetector interface {
	Detect(f videostream.Frame) (DetectionResult, error)
}

type syncAdapter struct {
	raw  SyncDetector
	pool *reactive.WorkerPool
}

// Adapt wraps a SyncDetector so it can be driven like an async Detector,
// offloading each blocking Detect call onto pool.
func Adapt(raw SyncDetector, pool *reactive.WorkerPool) Detector {
	return &syncAdapter{raw: raw, pool: pool}
}

func (a *syncAdapter) Detect(ctx context.Context, f videostream.Frame) (DetectionResult, error) {
	return reactive.Offload(ctx, a.pool, func() (DetectionResult, error) {
		return a.raw.Detect(f)
	})
}
