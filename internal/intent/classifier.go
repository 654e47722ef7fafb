// Package intent classifies user utterances into assistant intents using
// an LLM and extracts the entities each action handler needs.
package intent

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsiemon2/Boomer-AI-Docker/internal/llm"
)

// Intent identifies what the user wants to do.
type Intent string

const (
	ScheduleQuery   Intent = "schedule_query"
	ScheduleAdd     Intent = "schedule_add"
	ScheduleCancel  Intent = "schedule_cancel"
	MedicationQuery Intent = "medication_query"
	MedicationTaken Intent = "medication_taken"
	MedicationAdd   Intent = "medication_add"
	ContactQuery    Intent = "contact_query"
	ContactCall     Intent = "contact_call"
	ContactAdd      Intent = "contact_add"
	NoteQuery       Intent = "note_query"
	NoteAdd         Intent = "note_add"
	NoteReadPinned  Intent = "note_read_pinned"
	Greeting        Intent = "greeting"
	Help            Intent = "help"
	Unknown         Intent = "unknown"
)

var knownIntents = map[Intent]bool{
	ScheduleQuery:   true,
	ScheduleAdd:     true,
	ScheduleCancel:  true,
	MedicationQuery: true,
	MedicationTaken: true,
	MedicationAdd:   true,
	ContactQuery:    true,
	ContactCall:     true,
	ContactAdd:      true,
	NoteQuery:       true,
	NoteAdd:         true,
	NoteReadPinned:  true,
	Greeting:        true,
	Help:            true,
	Unknown:         true,
}

// Valid reports whether i is a recognized intent.
func (i Intent) Valid() bool { return knownIntents[i] }

// Entities are the values extracted alongside an intent. Fields are empty
// when the model did not produce them.
type Entities struct {
	Date         string
	Time         string
	Query        string
	Name         string
	Relationship string
	Search       string
	Topic        string
	Medication   string
	Content      string
}

// Result is a classified utterance.
type Result struct {
	Intent     Intent
	Entities   Entities
	Confidence float64
}

const systemPrompt = `You are an intent parser for a voice assistant for older adults. Parse the user's request and return JSON.

Intents:
- schedule_query: Asking about schedule/appointments (e.g., "What's on my schedule?", "Do I have any appointments tomorrow?")
- schedule_add: Adding an appointment (e.g., "Add a doctor appointment on Friday at 3pm")
- schedule_cancel: Canceling an appointment (e.g., "Cancel my car inspection")
- medication_query: Asking about medications (e.g., "Did I take my meds?", "What medications do I take?")
- medication_taken: Marking medication as taken (e.g., "Mark my morning meds as taken")
- medication_add: Adding a medication (e.g., "Add Lisinopril 10mg every day at 8am")
- contact_query: Looking up contact info (e.g., "What's my daughter's phone number?", "How do I reach Dr. Smith?")
- contact_call: Wanting to call someone (e.g., "Call my son", "I need to call the pharmacy")
- contact_add: Adding a contact (e.g., "Add contact Mike the plumber, 555-1234")
- note_query: Finding a note (e.g., "Find my note about the garage code", "What was that note about...")
- note_add: Creating a note (e.g., "Take a note: the garage code is 4182")
- note_read_pinned: Reading pinned notes (e.g., "Read my pinned notes", "What are my important notes?")
- greeting: Simple greeting (e.g., "Hello", "Hi there")
- help: Asking for help (e.g., "What can you do?", "Help")
- unknown: Can't determine intent

Extract entities when relevant:
- date/time for appointments
- medication names, dosages, times
- contact names, relationships, phone numbers
- note content, search terms

Respond with JSON only:
{"intent": "intent_type", "entities": {"key": "value"}, "confidence": 0.0-1.0}`

// Classifier turns utterances into Results. Any failure degrades to the
// unknown intent rather than an error, so the caller can always respond.
type Classifier struct {
	completer llm.Completer
	timeout   time.Duration
	log       zerolog.Logger
}

// NewClassifier creates a classifier over the given completer.
func NewClassifier(completer llm.Completer, timeout time.Duration, log zerolog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Classifier{completer: completer, timeout: timeout, log: log}
}

// Classify parses the utterance. It never returns an error; failures yield
// Result{Intent: Unknown, Confidence: 0}.
func (c *Classifier) Classify(ctx context.Context, utterance string) Result {
	unknown := Result{Intent: Unknown}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content, err := c.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        utterance,
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("intent classification failed")
		return unknown
	}

	raw, ok := ExtractJSON(content)
	if !ok {
		c.log.Warn().Str("content", content).Msg("no JSON in classifier response")
		return unknown
	}

	var parsed struct {
		Intent     string         `json:"intent"`
		Entities   map[string]any `json:"entities"`
		Confidence float64        `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		c.log.Warn().Err(err).Msg("malformed classifier JSON")
		return unknown
	}

	in := Intent(parsed.Intent)
	if !in.Valid() {
		in = Unknown
	}

	return Result{
		Intent:     in,
		Entities:   liftEntities(parsed.Entities),
		Confidence: parsed.Confidence,
	}
}

// liftEntities maps the model's loosely keyed entity object onto the typed
// struct, accepting the alias keys the model tends to produce. Non-string
// values are stringified.
func liftEntities(m map[string]any) Entities {
	get := func(keys ...string) string {
		for _, k := range keys {
			switch v := m[k].(type) {
			case string:
				if v != "" {
					return v
				}
			case float64:
				return strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				return strconv.FormatBool(v)
			}
		}
		return ""
	}
	return Entities{
		Date:         get("date", "datetime", "day"),
		Time:         get("time"),
		Query:        get("query"),
		Name:         get("name", "contact", "person"),
		Relationship: get("relationship"),
		Search:       get("search", "search_term", "term"),
		Topic:        get("topic", "subject"),
		Medication:   get("medication", "medication_name"),
		Content:      get("content", "note"),
	}
}

// ExtractJSON returns the first balanced top-level JSON object in s,
// tolerating prose before and after it. Braces inside string literals are
// ignored.
func ExtractJSON(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
