package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UserStore handles user persistence.
type UserStore struct {
	db *DB
}

// Create inserts a user, assigning an ID when missing.
func (s *UserStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO users (id, email, phone, password_hash, name, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Phone, u.PasswordHash, u.Name, u.Timezone, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetByID returns the user with the given ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	u := &User{}
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, email, phone, password_hash, name, timezone, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
