package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContactStore handles contact persistence.
type ContactStore struct {
	db *DB
}

// Create inserts a contact, assigning an ID when missing.
func (s *ContactStore) Create(ctx context.Context, c *Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Relationship == "" {
		c.Relationship = "OTHER"
	}
	if c.PreferredMethod == "" {
		c.PreferredMethod = "PHONE"
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO contacts (
		    id, user_id, name, phone, email, relationship,
		    preferred_method, notes, is_emergency, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.UserID, c.Name, c.Phone, c.Email, c.Relationship,
		c.PreferredMethod, c.Notes, c.IsEmergency, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// Search returns the user's contacts whose name, relationship, or notes
// match the term. Matching is case-insensitive and partial.
func (s *ContactStore) Search(ctx context.Context, userID, term string, limit int) ([]Contact, error) {
	pattern := "%" + term + "%"
	relPattern := "%" + strings.ToUpper(term) + "%"
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, name, phone, email, relationship,
		       preferred_method, notes, is_emergency, created_at, updated_at
		FROM contacts
		WHERE user_id = ? AND (name LIKE ? OR relationship LIKE ? OR notes LIKE ?)
		ORDER BY name ASC
		LIMIT ?
	`, userID, pattern, relPattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []Contact{}
	for rows.Next() {
		var c Contact
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.Relationship,
			&c.PreferredMethod, &c.Notes, &c.IsEmergency, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
