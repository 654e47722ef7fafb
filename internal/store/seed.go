package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DemoUserID is the account created by Seed.
const DemoUserID = "demo-user"

// Seed populates the database with a demo account and sample data. It is a
// no-op when the demo user already exists.
func (s *Store) Seed(ctx context.Context) error {
	if _, err := s.Users.GetByID(ctx, DemoUserID); err == nil {
		return nil
	} else if err != ErrNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo123"), 12)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	user := &User{
		ID:           DemoUserID,
		Email:        "demo@boomerai.com",
		Phone:        "+15551234567",
		PasswordHash: string(hash),
		Name:         "Robert Johnson",
		Timezone:     "America/New_York",
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	contacts := []Contact{
		{
			UserID:       DemoUserID,
			Name:         "Dr. Michael Smith",
			Phone:        "+15551112222",
			Email:        "dr.smith@medcenter.com",
			Relationship: "DOCTOR",
			Notes:        "Primary care physician",
		},
		{
			UserID:       DemoUserID,
			Name:         "Sarah Johnson",
			Phone:        "+15559876543",
			Relationship: "DAUGHTER",
			IsEmergency:  true,
		},
		{
			UserID:       DemoUserID,
			Name:         "Main Street Pharmacy",
			Phone:        "+15553334444",
			Relationship: "PHARMACY",
		},
	}
	for i := range contacts {
		if err := s.Contacts.Create(ctx, &contacts[i]); err != nil {
			return fmt.Errorf("seed contact %s: %w", contacts[i].Name, err)
		}
	}

	medications := []Medication{
		{
			UserID:       DemoUserID,
			Name:         "Lisinopril",
			Form:         "tablet",
			Dosage:       "10mg",
			Instructions: "Take once daily in the morning",
			Prescriber:   "Dr. Michael Smith",
			Pharmacy:     "Main Street Pharmacy",
			IsActive:     true,
		},
		{
			UserID:       DemoUserID,
			Name:         "Metformin",
			Form:         "tablet",
			Dosage:       "500mg",
			Instructions: "Take twice daily with meals",
			Prescriber:   "Dr. Michael Smith",
			Pharmacy:     "Main Street Pharmacy",
			IsActive:     true,
		},
	}
	for i := range medications {
		if err := s.Medications.Create(ctx, &medications[i]); err != nil {
			return fmt.Errorf("seed medication %s: %w", medications[i].Name, err)
		}
	}

	tomorrow := time.Now().AddDate(0, 0, 1)
	checkup := &Appointment{
		UserID:   DemoUserID,
		Title:    "Dr. Smith Checkup",
		Category: CategoryMedical,
		Location: "123 Medical Center Dr, Suite 200",
		StartAt:  time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, time.Local),
	}
	checkup.EndAt = checkup.StartAt.Add(time.Hour)
	if err := s.Appointments.Create(ctx, checkup); err != nil {
		return fmt.Errorf("seed appointment: %w", err)
	}

	note := &Note{
		UserID:   DemoUserID,
		Title:    "Garage code",
		Body:     "Garage code is 4182",
		IsPinned: true,
	}
	if err := s.Notes.Create(ctx, note); err != nil {
		return fmt.Errorf("seed note: %w", err)
	}

	return nil
}
