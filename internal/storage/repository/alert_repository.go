package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sentineld/sentinel/internal/alert"
	"github.com/sentineld/sentinel/internal/storage/db"
	"github.com/sentineld/sentinel/internal/storage/models"
)

const (
	alertHeaderMaxLen      = 256
	alertDescriptionMaxLen = 2048
)

// AlertRepository persists alert.ManagedAlert, implementing
// alert.Repository.
type AlertRepository struct {
	db *db.DB
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(database *db.DB) *AlertRepository {
	return &AlertRepository{db: database}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Create inserts a new alert row, truncating header/description to the
// bounds spec.md §6 declares for the column.
func (r *AlertRepository) Create(ctx context.Context, a alert.Alert) (alert.ManagedAlert, error) {
	m := models.Alert{
		ID:          uuid.New(),
		Header:      truncate(a.Header, alertHeaderMaxLen),
		Description: truncate(a.Description, alertDescriptionMaxLen),
		Source:      a.Source,
		SourceType:  a.SourceType,
		Timestamp:   a.Timestamp,
		Data:        models.JSONMap(a.Data),
	}

	query := `
		INSERT INTO alert (id, header, description, source, source_type, source_deleted, timestamp, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Header, m.Description, m.Source, m.SourceType, m.SourceDeleted, m.Timestamp, m.Data)
	if err != nil {
		return alert.ManagedAlert{}, fmt.Errorf("failed to create alert: %w", err)
	}

	return alert.ManagedAlert{
		ID: m.ID,
		Alert: alert.Alert{
			Header:      m.Header,
			Description: m.Description,
			Source:      m.Source,
			SourceType:  m.SourceType,
			Timestamp:   m.Timestamp,
			Data:        a.Data,
		},
	}, nil
}

// List retrieves the most recent alerts, optionally filtered to one
// source, newest first, capped at limit (0 meaning no cap).
func (r *AlertRepository) List(ctx context.Context, sourceName string, limit int) ([]alert.ManagedAlert, error) {
	query := `
		SELECT id, header, description, source, source_type, source_deleted, timestamp, data
		FROM alert
	`
	args := []any{}
	if sourceName != "" {
		query += ` WHERE source = $1`
		args = append(args, sourceName)
	}
	query += ` ORDER BY timestamp DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []alert.ManagedAlert
	for rows.Next() {
		var m models.Alert
		if err := rows.Scan(&m.ID, &m.Header, &m.Description, &m.Source, &m.SourceType, &m.SourceDeleted, &m.Timestamp, &m.Data); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, alert.ManagedAlert{
			ID: m.ID,
			Alert: alert.Alert{
				Header:      m.Header,
				Description: m.Description,
				Source:      m.Source,
				SourceType:  m.SourceType,
				Timestamp:   m.Timestamp,
				Data:        map[string]any(m.Data),
			},
			SourceDeleted: m.SourceDeleted,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return out, nil
}

// MarkSourceDeleted flags every alert for sourceName as belonging to a
// since-deleted VideoSource, so history survives the source's own row
// being removed.
func (r *AlertRepository) MarkSourceDeleted(ctx context.Context, sourceName string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE alert SET source_deleted = true WHERE source = $1`, sourceName)
	if err != nil {
		return fmt.Errorf("failed to mark source deleted: %w", err)
	}
	return nil
}
