package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sentineld/sentinel/internal/storage/db"
	"github.com/sentineld/sentinel/internal/storage/models"
	"github.com/sentineld/sentinel/internal/subscriber"
)

// SubscriberRepository persists subscriber.ManagedSubscriber, implementing
// subscriber.Repository.
type SubscriberRepository struct {
	db *db.DB
}

// NewSubscriberRepository creates a new subscriber repository.
func NewSubscriberRepository(database *db.DB) *SubscriberRepository {
	return &SubscriberRepository{db: database}
}

func toSubscriberModel(s subscriber.ManagedSubscriber) models.Subscriber {
	return models.Subscriber{
		ID:            s.ID,
		Name:          s.Name,
		Enabled:       s.Enabled,
		PluginName:    s.PluginName,
		ComponentName: s.ComponentName,
		Config:        models.JSONMap(s.Config),
	}
}

func fromSubscriberModel(m models.Subscriber) subscriber.ManagedSubscriber {
	return subscriber.ManagedSubscriber{
		ID:            m.ID,
		Name:          m.Name,
		Enabled:       m.Enabled,
		PluginName:    m.PluginName,
		ComponentName: m.ComponentName,
		Config:        map[string]any(m.Config),
	}
}

// Create inserts a new subscriber row.
func (r *SubscriberRepository) Create(ctx context.Context, s subscriber.ManagedSubscriber) (subscriber.ManagedSubscriber, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m := toSubscriberModel(s)

	query := `
		INSERT INTO subscriber (id, name, enabled, plugin_name, component_name, config)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.Enabled, m.PluginName, m.ComponentName, m.Config)
	if err != nil {
		return subscriber.ManagedSubscriber{}, fmt.Errorf("failed to create subscriber: %w", err)
	}
	return fromSubscriberModel(m), nil
}

// Update persists every field of s over the existing row with the same ID.
func (r *SubscriberRepository) Update(ctx context.Context, s subscriber.ManagedSubscriber) error {
	m := toSubscriberModel(s)
	query := `
		UPDATE subscriber
		SET name = $2, enabled = $3, plugin_name = $4, component_name = $5, config = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.Enabled, m.PluginName, m.ComponentName, m.Config)
	if err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subscriber not found: %s", s.ID)
	}
	return nil
}

// Delete removes a subscriber row.
func (r *SubscriberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriber WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subscriber not found: %s", id)
	}
	return nil
}

// List retrieves every persisted subscriber.
func (r *SubscriberRepository) List(ctx context.Context) ([]subscriber.ManagedSubscriber, error) {
	query := `SELECT id, name, enabled, plugin_name, component_name, config FROM subscriber ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var out []subscriber.ManagedSubscriber
	for rows.Next() {
		var m models.Subscriber
		if err := rows.Scan(&m.ID, &m.Name, &m.Enabled, &m.PluginName, &m.ComponentName, &m.Config); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		out = append(out, fromSubscriberModel(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}
	return out, nil
}
