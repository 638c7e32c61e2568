package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentineld/sentinel/internal/videostream"
)

func TestThresholdDetector_FlagsBrightFrame(t *testing.T) {
	d := NewThresholdDetector(100, "bright")
	frame := videostream.Frame{Width: 2, Height: 1, Pixels: []byte{200, 200}}

	result, err := d.Detect(frame)
	require.NoError(t, err)
	require.Len(t, result.Detections, 1)
	assert.Equal(t, "bright", result.Detections[0].Categories[0].Name)
}

func TestThresholdDetector_IgnoresDarkFrame(t *testing.T) {
	d := NewThresholdDetector(100, "bright")
	frame := videostream.Frame{Width: 2, Height: 1, Pixels: []byte{10, 10}}

	result, err := d.Detect(frame)
	require.NoError(t, err)
	assert.Empty(t, result.Detections)
}

func TestThresholdDetector_EmptyFrameNoDetection(t *testing.T) {
	d := NewThresholdDetector(0, "bright")
	result, err := d.Detect(videostream.Frame{})
	require.NoError(t, err)
	assert.Empty(t, result.Detections)
}
