package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sentineld/sentinel/internal/storage/db"
	"github.com/sentineld/sentinel/internal/storage/models"
)

// UserRepository handles operator account database operations.
type UserRepository struct {
	db *db.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(database *db.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user, assigning its ID.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO "user" (username, hashed_password) VALUES ($1, $2) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.HashedPassword).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, hashed_password FROM "user" WHERE username = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.HashedPassword)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Delete deletes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %d", id)
	}
	return nil
}
