package models

import "github.com/google/uuid"

// VideoSource is the storage row shape for source.VideoSource, per
// spec.md §6's `video_source` table (CooldownSeconds is a deliberate
// schema addition — see DESIGN.md).
type VideoSource struct {
	ID                     uuid.UUID `db:"id"`
	Name                   string    `db:"name"`
	Enabled                bool      `db:"enabled"`
	DetectInterval         float64   `db:"detect_interval"`
	VidstreamPluginName    string    `db:"vidstream_plugin_name"`
	VidstreamComponentName string    `db:"vidstream_component_name"`
	VidstreamConfig        JSONMap   `db:"vidstream_config"`
	DetectorPluginName     string    `db:"detector_plugin_name"`
	DetectorComponentName  string    `db:"detector_component_name"`
	DetectorConfig         JSONMap   `db:"detector_config"`
	CooldownSeconds        float64   `db:"cooldown_seconds"`
	Status                 string    `db:"status"`
	LastError              string    `db:"last_error"`
}
