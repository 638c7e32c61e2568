package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sentineld/sentinel/internal/source"
	"github.com/sentineld/sentinel/internal/storage/db"
	"github.com/sentineld/sentinel/internal/storage/models"
)

// VideoSourceRepository persists source.VideoSource, implementing
// source.Repository, grounded on the teacher's CameraRepository CRUD shape.
type VideoSourceRepository struct {
	db *db.DB
}

// NewVideoSourceRepository creates a new video source repository.
func NewVideoSourceRepository(database *db.DB) *VideoSourceRepository {
	return &VideoSourceRepository{db: database}
}

func toVideoSourceModel(s source.VideoSource) models.VideoSource {
	return models.VideoSource{
		ID:                     s.ID,
		Name:                   s.Name,
		Enabled:                s.Enabled,
		DetectInterval:         s.DetectIntervalSeconds,
		VidstreamPluginName:    s.VidstreamPluginName,
		VidstreamComponentName: s.VidstreamComponentName,
		VidstreamConfig:        models.JSONMap(s.VidstreamConfig),
		DetectorPluginName:     s.DetectorPluginName,
		DetectorComponentName:  s.DetectorComponentName,
		DetectorConfig:         models.JSONMap(s.DetectorConfig),
		CooldownSeconds:        s.CooldownSeconds,
		Status:                 string(s.Status),
		LastError:              s.LastError,
	}
}

func fromVideoSourceModel(m models.VideoSource) source.VideoSource {
	return source.VideoSource{
		ID:                     m.ID,
		Name:                   m.Name,
		Enabled:                m.Enabled,
		DetectIntervalSeconds:  m.DetectInterval,
		VidstreamPluginName:    m.VidstreamPluginName,
		VidstreamComponentName: m.VidstreamComponentName,
		VidstreamConfig:        map[string]any(m.VidstreamConfig),
		DetectorPluginName:     m.DetectorPluginName,
		DetectorComponentName:  m.DetectorComponentName,
		DetectorConfig:         map[string]any(m.DetectorConfig),
		CooldownSeconds:        m.CooldownSeconds,
		Status:                 source.Status(m.Status),
		LastError:              m.LastError,
	}
}

// Create inserts a new video source row.
func (r *VideoSourceRepository) Create(ctx context.Context, s source.VideoSource) (source.VideoSource, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m := toVideoSourceModel(s)

	query := `
		INSERT INTO video_source (id, name, enabled, detect_interval, vidstream_plugin_name,
			vidstream_component_name, vidstream_config, detector_plugin_name,
			detector_component_name, detector_config, cooldown_seconds, status, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Enabled, m.DetectInterval, m.VidstreamPluginName,
		m.VidstreamComponentName, m.VidstreamConfig, m.DetectorPluginName,
		m.DetectorComponentName, m.DetectorConfig, m.CooldownSeconds, m.Status, m.LastError)
	if err != nil {
		return source.VideoSource{}, fmt.Errorf("failed to create video source: %w", err)
	}
	return fromVideoSourceModel(m), nil
}

// Update persists every field of s over the existing row with the same ID.
func (r *VideoSourceRepository) Update(ctx context.Context, s source.VideoSource) error {
	m := toVideoSourceModel(s)
	query := `
		UPDATE video_source
		SET name = $2, enabled = $3, detect_interval = $4, vidstream_plugin_name = $5,
			vidstream_component_name = $6, vidstream_config = $7, detector_plugin_name = $8,
			detector_component_name = $9, detector_config = $10, cooldown_seconds = $11,
			status = $12, last_error = $13
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Enabled, m.DetectInterval, m.VidstreamPluginName,
		m.VidstreamComponentName, m.VidstreamConfig, m.DetectorPluginName,
		m.DetectorComponentName, m.DetectorConfig, m.CooldownSeconds, m.Status, m.LastError)
	if err != nil {
		return fmt.Errorf("failed to update video source: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("video source not found: %s", s.ID)
	}
	return nil
}

// Delete removes a video source row.
func (r *VideoSourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM video_source WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video source: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("video source not found: %s", id)
	}
	return nil
}

// List retrieves every persisted video source.
func (r *VideoSourceRepository) List(ctx context.Context) ([]source.VideoSource, error) {
	query := `
		SELECT id, name, enabled, detect_interval, vidstream_plugin_name,
			vidstream_component_name, vidstream_config, detector_plugin_name,
			detector_component_name, detector_config, cooldown_seconds, status, last_error
		FROM video_source
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list video sources: %w", err)
	}
	defer rows.Close()

	var out []source.VideoSource
	for rows.Next() {
		var m models.VideoSource
		if err := rows.Scan(&m.ID, &m.Name, &m.Enabled, &m.DetectInterval, &m.VidstreamPluginName,
			&m.VidstreamComponentName, &m.VidstreamConfig, &m.DetectorPluginName,
			&m.DetectorComponentName, &m.DetectorConfig, &m.CooldownSeconds, &m.Status, &m.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan video source: %w", err)
		}
		out = append(out, fromVideoSourceModel(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating video sources: %w", err)
	}
	return out, nil
}
