package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// MedicationStore handles medication and medication-log persistence.
type MedicationStore struct {
	db *DB
}

// Create inserts a medication, assigning an ID when missing.
func (s *MedicationStore) Create(ctx context.Context, m *Medication) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO medications (
		    id, user_id, name, form, dosage, instructions, prescriber,
		    pharmacy, schedule, pills_remaining, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.UserID, m.Name, m.Form, m.Dosage, m.Instructions, m.Prescriber,
		m.Pharmacy, m.Schedule, m.PillsRemaining, m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

// FindActive returns the user's active medications ordered by name.
func (s *MedicationStore) FindActive(ctx context.Context, userID string) ([]Medication, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, name, form, dosage, instructions, prescriber,
		       pharmacy, schedule, pills_remaining, is_active, created_at, updated_at
		FROM medications
		WHERE user_id = ? AND is_active = 1
		ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMedications(rows)
}

// FindActiveWithLogs returns the user's active medications joined with their
// log entries scheduled in [from, to).
func (s *MedicationStore) FindActiveWithLogs(ctx context.Context, userID string, from, to time.Time) ([]MedicationWithLogs, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT m.id, m.user_id, m.name, m.form, m.dosage, m.instructions, m.prescriber,
		       m.pharmacy, m.schedule, m.pills_remaining, m.is_active, m.created_at, m.updated_at,
		       l.id, l.status, l.scheduled_at, l.taken_at, l.source, l.created_at
		FROM medications m
		LEFT JOIN medication_logs l
		       ON l.medication_id = m.id AND l.scheduled_at >= ? AND l.scheduled_at < ?
		WHERE m.user_id = ? AND m.is_active = 1
		ORDER BY m.name ASC, l.scheduled_at ASC
	`, from, to, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []MedicationWithLogs{}
	index := map[string]int{}
	for rows.Next() {
		var m Medication
		var logID, status, source sql.NullString
		var scheduledAt, takenAt, logCreatedAt sql.NullTime
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Name, &m.Form, &m.Dosage, &m.Instructions, &m.Prescriber,
			&m.Pharmacy, &m.Schedule, &m.PillsRemaining, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
			&logID, &status, &scheduledAt, &takenAt, &source, &logCreatedAt,
		); err != nil {
			return nil, err
		}

		i, ok := index[m.ID]
		if !ok {
			i = len(result)
			index[m.ID] = i
			result = append(result, MedicationWithLogs{Medication: m, Logs: []MedicationLog{}})
		}
		if logID.Valid {
			entry := MedicationLog{
				ID:           logID.String,
				MedicationID: m.ID,
				Status:       LogStatus(status.String),
				ScheduledAt:  scheduledAt.Time,
				Source:       LogSource(source.String),
				CreatedAt:    logCreatedAt.Time,
			}
			if takenAt.Valid {
				entry.TakenAt = takenAt.Time
			}
			result[i].Logs = append(result[i].Logs, entry)
		}
	}
	return result, rows.Err()
}

// CreateLog inserts a medication log entry, assigning an ID when missing.
func (s *MedicationStore) CreateLog(ctx context.Context, l *MedicationLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = LogPending
	}
	if l.Source == "" {
		l.Source = LogSourceUser
	}
	l.CreatedAt = time.Now().UTC()

	var takenAt any
	if !l.TakenAt.IsZero() {
		takenAt = l.TakenAt
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO medication_logs (id, medication_id, status, scheduled_at, taken_at, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.MedicationID, l.Status, l.ScheduledAt, takenAt, l.Source, l.CreatedAt)
	return err
}

func scanMedications(rows *sql.Rows) ([]Medication, error) {
	medications := []Medication{}
	for rows.Next() {
		var m Medication
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Name, &m.Form, &m.Dosage, &m.Instructions, &m.Prescriber,
			&m.Pharmacy, &m.Schedule, &m.PillsRemaining, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		medications = append(medications, m)
	}
	return medications, rows.Err()
}
