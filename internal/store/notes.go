package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// NoteStore handles note persistence.
type NoteStore struct {
	db *DB
}

// Create inserts a note, assigning an ID when missing.
func (s *NoteStore) Create(ctx context.Context, n *Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Category == "" {
		n.Category = "GENERAL"
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, body, category, is_pinned, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Title, n.Body, n.Category, n.IsPinned, n.Tags, n.CreatedAt, n.UpdatedAt)
	return err
}

// Search returns the user's notes whose title or body match the term,
// most recently updated first.
func (s *NoteStore) Search(ctx context.Context, userID, term string, limit int) ([]Note, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, title, body, category, is_pinned, tags, created_at, updated_at
		FROM notes
		WHERE user_id = ? AND (title LIKE ? OR body LIKE ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`, userID, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

// FindPinned returns the user's pinned notes, most recently updated first.
func (s *NoteStore) FindPinned(ctx context.Context, userID string, limit int) ([]Note, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, title, body, category, is_pinned, tags, created_at, updated_at
		FROM notes
		WHERE user_id = ? AND is_pinned = 1
		ORDER BY updated_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	notes := []Note{}
	for rows.Next() {
		var n Note
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Body, &n.Category, &n.IsPinned, &n.Tags,
			&n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
