package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert is the storage row shape for alert.ManagedAlert, per spec.md §6's
// `alert` table (header ≤256 chars, description ≤2048 chars, enforced by
// the repository before insert rather than only at the database).
type Alert struct {
	ID            uuid.UUID `db:"id"`
	Header        string    `db:"header"`
	Description   string    `db:"description"`
	Source        string    `db:"source"`
	SourceType    string    `db:"source_type"`
	SourceDeleted bool      `db:"source_deleted"`
	Timestamp     time.Time `db:"timestamp"`
	Data          JSONMap   `db:"data"`
}
