package engine

import "context"

// Transcriber converts a recorded audio buffer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders reply text as audio with the given voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Notifier is told about completed actions worth relaying to a caregiver.
type Notifier interface {
	MedicationsTaken(ctx context.Context, userID string, names []string)
}

// EventType identifies an engine event.
type EventType string

const (
	EventSpeaking        EventType = "speaking"
	EventActionCompleted EventType = "action_completed"
	EventError           EventType = "error"
)

// Event is emitted by the engine as it processes a turn.
type Event struct {
	Type    EventType
	Text    string
	Audio   []byte
	Action  string
	Data    any
	Message string
}
