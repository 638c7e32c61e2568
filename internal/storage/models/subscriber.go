package models

import "github.com/google/uuid"

// Subscriber is the storage row shape for subscriber.ManagedSubscriber,
// per spec.md §6's `subscriber` table.
type Subscriber struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	Enabled       bool      `db:"enabled"`
	PluginName    string    `db:"plugin_name"`
	ComponentName string    `db:"component_name"`
	Config        JSONMap   `db:"config"`
}
