package alert

import (
	"testing"

	"github.com/sentineld/sentinel/internal/detector"
	"github.com/sentineld/sentinel/internal/videostream"
	"github.com/stretchr/testify/assert"
)

func scorePtr(v float64) *float64 { return &v }

func TestBuildAlert_MatchesFixedShape(t *testing.T) {
	r := detector.DetectionResult{
		Frame:      videostream.Frame{},
		Detections: []detector.Detection{{Categories: []detector.Category{{Name: "person"}}}},
	}

	a := buildAlert("cam-1", r)

	assert.Equal(t, "Camera Alert", a.Header)
	assert.Equal(t, "Detected: person", a.Description)
	assert.Equal(t, "cam-1", a.Source)
	assert.Equal(t, "Video Source", a.SourceType)
	assert.Equal(t, map[string]any{"detections": []string{"person"}}, a.Data)
	assert.False(t, a.Timestamp.IsZero())
}

func TestBuildAlert_DedupesRepeatedPrimaryCategories(t *testing.T) {
	r := detector.DetectionResult{
		Detections: []detector.Detection{
			{Categories: []detector.Category{{Name: "person"}}},
			{Categories: []detector.Category{{Name: "person"}}},
		},
	}

	a := buildAlert("cam-1", r)
	assert.Equal(t, "Detected: person", a.Description)
}

func TestPrimaryCategory_PicksMaxScore(t *testing.T) {
	d := detector.Detection{Categories: []detector.Category{
		{Name: "cat", Score: scorePtr(0.2)},
		{Name: "dog", Score: scorePtr(0.9)},
		{Name: "bird", Score: scorePtr(0.5)},
	}}

	name, ok := primaryCategory(d)
	assert.True(t, ok)
	assert.Equal(t, "dog", name)
}

func TestPrimaryCategory_NilScoreLosesToAnyScored(t *testing.T) {
	d := detector.Detection{Categories: []detector.Category{
		{Name: "unscored"},
		{Name: "scored", Score: scorePtr(-100)},
	}}

	name, ok := primaryCategory(d)
	assert.True(t, ok)
	assert.Equal(t, "scored", name)
}

func TestPrimaryCategory_NoCategoriesReturnsFalse(t *testing.T) {
	_, ok := primaryCategory(detector.Detection{})
	assert.False(t, ok)
}
