// Package source implements VideoSource and its lifecycle manager: the
// component that wires a plugin video-stream and detector pair into a
// running detection pipeline and registers the resulting alert emitter with
// the subscription graph.
package source

import (
	"github.com/google/uuid"
)

// Status reports the last-known health of an enabled VideoSource's
// pipeline, as observed by its driver task's completion.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// VideoSource is the persisted configuration of one camera/feed: which
// video-stream and detector plugin components to build, how often to run
// detection, and whether it should currently be running.
type VideoSource struct {
	ID                     uuid.UUID
	Name                   string
	Enabled                bool
	DetectIntervalSeconds  float64
	VidstreamPluginName    string
	VidstreamComponentName string
	VidstreamConfig        map[string]any
	DetectorPluginName     string
	DetectorComponentName  string
	DetectorConfig         map[string]any
	CooldownSeconds        float64
	Status                 Status
	LastError              string
}
