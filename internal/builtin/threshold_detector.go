package builtin

import (
	"github.com/sentineld/sentinel/internal/detector"
	"github.com/sentineld/sentinel/internal/videostream"
)

// ThresholdDetector is a sync Detector using a trivial mean-brightness
// heuristic: a frame whose average pixel value clears Threshold is
// reported as one full-frame "bright" detection. It exists to exercise the
// detector contract end to end without a real model, matching spec.md's
// deliberate exclusion of ML training/inference from scope.
type ThresholdDetector struct {
	// Threshold is the mean byte value (0-255) a frame's pixels must clear
	// to produce a detection.
	Threshold float64
	Category  string
}

// NewThresholdDetector builds a detector flagging frames whose mean pixel
// value is at least threshold, labelling detections with category.
func NewThresholdDetector(threshold float64, category string) *ThresholdDetector {
	if category == "" {
		category = "bright"
	}
	return &ThresholdDetector{Threshold: threshold, Category: category}
}

func (t *ThresholdDetector) Detect(f videostream.Frame) (detector.DetectionResult, error) {
	result := detector.DetectionResult{Frame: f}
	if len(f.Pixels) == 0 {
		return result, nil
	}

	var sum int
	for _, p := range f.Pixels {
		sum += int(p)
	}
	mean := float64(sum) / float64(len(f.Pixels))
	if mean < t.Threshold {
		return result, nil
	}

	result.Detections = []detector.Detection{
		{
			X: 0, Y: 0, Width: f.Width, Height: f.Height,
			Categories: []detector.Category{{Name: t.Category, Score: &mean}},
		},
	}
	return result, nil
}
