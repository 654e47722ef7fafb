package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AppointmentStore handles appointment persistence.
type AppointmentStore struct {
	db *DB
}

// Create inserts an appointment, assigning an ID when missing.
func (s *AppointmentStore) Create(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Category == "" {
		a.Category = CategoryOther
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	var endAt any
	if !a.EndAt.IsZero() {
		endAt = a.EndAt
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO appointments (
		    id, user_id, title, description, category, location,
		    start_at, end_at, all_day, notes, reminders, recurrence,
		    created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.UserID, a.Title, a.Description, a.Category, a.Location,
		a.StartAt, endAt, a.AllDay, a.Notes, a.Reminders, a.Recurrence,
		a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// FindInRange returns the user's appointments with start_at in [from, to),
// ordered by start time ascending.
func (s *AppointmentStore) FindInRange(ctx context.Context, userID string, from, to time.Time) ([]Appointment, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, title, description, category, location,
		       start_at, end_at, all_day, notes, reminders, recurrence,
		       created_at, updated_at
		FROM appointments
		WHERE user_id = ? AND start_at >= ? AND start_at < ?
		ORDER BY start_at ASC
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []Appointment{}
	for rows.Next() {
		var a Appointment
		var endAt sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Title, &a.Description, &a.Category, &a.Location,
			&a.StartAt, &endAt, &a.AllDay, &a.Notes, &a.Reminders, &a.Recurrence,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if endAt.Valid {
			a.EndAt = endAt.Time
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}
