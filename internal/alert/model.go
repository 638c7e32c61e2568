// Package alert turns detections into Alerts, fans them out through the
// subscription graph, and persists the ones an operator should be able to
// look back on.
package alert

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sentineld/sentinel/internal/detector"
)

// Alert is a single notable event raised by a video source's detector.
type Alert struct {
	Header      string
	Description string
	Source      string
	SourceType  string
	Timestamp   time.Time
	Data        map[string]any
}

// ManagedAlert is an Alert once it has an assigned identity and has been
// (or is being) persisted. SourceDeleted is set once the originating
// VideoSource is deleted, so alert history can outlive the source without
// a dangling foreign key.
type ManagedAlert struct {
	ID uuid.UUID
	Alert
	SourceDeleted bool
}

// buildAlert renders a detector.DetectionResult carrying at least one
// detection into an Alert. Each detection contributes its primary
// category — the one with the highest score, missing scores counting as
// -Inf — to the description and Data.
func buildAlert(sourceName string, r detector.DetectionResult) Alert {
	names := make([]string, 0, len(r.Detections))
	for _, d := range r.Detections {
		if name, ok := primaryCategory(d); ok {
			names = append(names, name)
		}
	}
	names = dedupe(names)

	return Alert{
		Header:      "Camera Alert",
		Description: "Detected: " + strings.Join(names, ", "),
		Source:      sourceName,
		SourceType:  "Video Source",
		Timestamp:   time.Now(),
		Data: map[string]any{
			"detections": names,
		},
	}
}

// primaryCategory picks d's highest-scoring Category; a Category with a
// nil Score is treated as -Inf, losing to any scored Category.
func primaryCategory(d detector.Detection) (string, bool) {
	best := math.Inf(-1)
	name := ""
	found := false
	for _, c := range d.Categories {
		score := math.Inf(-1)
		if c.Score != nil {
			score = *c.Score
		}
		if !found || score > best {
			best = score
			name = c.Name
			found = true
		}
	}
	return name, found
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
