package store

import "time"

// User is an account that owns all other rows.
type User struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	Name         string
	Timezone     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AppointmentCategory classifies an appointment.
type AppointmentCategory string

const (
	CategoryMedical   AppointmentCategory = "MEDICAL"
	CategoryPersonal  AppointmentCategory = "PERSONAL"
	CategorySocial    AppointmentCategory = "SOCIAL"
	CategoryHome      AppointmentCategory = "HOME"
	CategoryFinancial AppointmentCategory = "FINANCIAL"
	CategoryOther     AppointmentCategory = "OTHER"
)

// Valid reports whether c is a known category.
func (c AppointmentCategory) Valid() bool {
	switch c {
	case CategoryMedical, CategoryPersonal, CategorySocial, CategoryHome, CategoryFinancial, CategoryOther:
		return true
	}
	return false
}

// Appointment is a calendar entry. EndAt may be the zero time when the
// appointment has no explicit end.
type Appointment struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Category    AppointmentCategory `json:"category"`
	Location    string              `json:"location,omitempty"`
	StartAt     time.Time           `json:"startAt"`
	EndAt       time.Time           `json:"endAt,omitempty"`
	AllDay      bool                `json:"allDay"`
	Notes       string              `json:"notes,omitempty"`
	Reminders   string              `json:"reminders,omitempty"`
	Recurrence  string              `json:"recurrence,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Medication is a tracked prescription.
type Medication struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Name           string    `json:"name"`
	Form           string    `json:"form,omitempty"`
	Dosage         string    `json:"dosage,omitempty"`
	Instructions   string    `json:"instructions,omitempty"`
	Prescriber     string    `json:"prescriber,omitempty"`
	Pharmacy       string    `json:"pharmacy,omitempty"`
	Schedule       string    `json:"schedule,omitempty"`
	PillsRemaining int       `json:"pillsRemaining"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LogStatus is the state of a medication log entry.
type LogStatus string

const (
	LogPending LogStatus = "PENDING"
	LogTaken   LogStatus = "TAKEN"
	LogMissed  LogStatus = "MISSED"
)

// LogSource tags who created a medication log entry.
type LogSource string

const (
	LogSourceUser   LogSource = "USER"
	LogSourceSystem LogSource = "SYSTEM"
)

// MedicationLog records one scheduled dose. TakenAt is the zero time for
// PENDING entries and is set to the moment of marking for TAKEN entries.
type MedicationLog struct {
	ID           string    `json:"id"`
	MedicationID string    `json:"medicationId"`
	Status       LogStatus `json:"status"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	TakenAt      time.Time `json:"takenAt,omitempty"`
	Source       LogSource `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MedicationWithLogs is a medication joined with its log entries for a window.
type MedicationWithLogs struct {
	Medication
	Logs []MedicationLog `json:"logs"`
}

// Taken reports whether any log in the window has status TAKEN.
func (m MedicationWithLogs) Taken() bool {
	for _, l := range m.Logs {
		if l.Status == LogTaken {
			return true
		}
	}
	return false
}

// Contact is an address-book entry.
type Contact struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	Relationship    string    `json:"relationship"`
	PreferredMethod string    `json:"preferredMethod"`
	Notes           string    `json:"notes,omitempty"`
	IsEmergency     bool      `json:"isEmergency"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Note is a free-form note.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	IsPinned  bool      `json:"isPinned"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
