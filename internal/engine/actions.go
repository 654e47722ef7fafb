package engine

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dsiemon2/Boomer-AI-Docker/internal/intent"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/llm"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/store"
)

func (e *Engine) dispatch(ctx context.Context, res intent.Result, original string) {
	switch res.Intent {
	case intent.Greeting:
		e.speak(ctx, "Hello! How can I help you today?")
	case intent.Help:
		e.speak(ctx, "I can help you with your schedule, medications, contacts, and notes. Try saying things like: What's on my schedule today? Did I take my medications? What's my daughter's phone number? Or, take a note.")
	case intent.ScheduleQuery:
		e.handleScheduleQuery(ctx, res.Entities)
	case intent.ScheduleAdd:
		e.handleScheduleAdd(ctx, original)
	case intent.MedicationQuery:
		e.handleMedicationQuery(ctx, res.Entities)
	case intent.MedicationTaken:
		e.handleMedicationTaken(ctx)
	case intent.ContactQuery, intent.ContactCall:
		e.handleContactQuery(ctx, res.Entities)
	case intent.NoteQuery:
		e.handleNoteQuery(ctx, res.Entities)
	case intent.NoteAdd:
		e.handleNoteAdd(ctx, original)
	case intent.NoteReadPinned:
		e.handlePinnedNotes(ctx)
	default:
		e.handleUnknown(ctx, original)
	}
}

func (e *Engine) handleScheduleQuery(ctx context.Context, ents intent.Entities) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	from := today
	to := today.AddDate(0, 0, 1)
	dateLabel := "today"

	switch date := strings.ToLower(ents.Date); {
	case strings.Contains(date, "tomorrow"):
		from = today.AddDate(0, 0, 1)
		to = today.AddDate(0, 0, 2)
		dateLabel = "tomorrow"
	case strings.Contains(date, "week"):
		to = today.AddDate(0, 0, 7)
		dateLabel = "this week"
	}

	appointments, err := e.deps.Store.Appointments.FindInRange(ctx, e.cfg.UserID, from, to)
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("schedule query failed")
		e.speak(ctx, "I had trouble checking your schedule. Please try again.")
		return
	}

	switch len(appointments) {
	case 0:
		e.speak(ctx, "You don't have any appointments "+dateLabel+".")
	case 1:
		apt := appointments[0]
		reply := "You have one appointment " + dateLabel + ": " + apt.Title + " at " + formatClock(apt.StartAt)
		if apt.Location != "" {
			reply += " at " + apt.Location
		}
		e.speak(ctx, reply+".")
	default:
		var b strings.Builder
		b.WriteString("You have " + strconv.Itoa(len(appointments)) + " appointments " + dateLabel + ". ")
		for i, apt := range appointments {
			if i == 3 {
				break
			}
			b.WriteString(strconv.Itoa(i+1) + ": " + apt.Title + " at " + formatClock(apt.StartAt) + ". ")
		}
		if len(appointments) > 3 {
			b.WriteString("And " + strconv.Itoa(len(appointments)-3) + " more.")
		}
		e.speak(ctx, strings.TrimRight(b.String(), " "))
	}

	e.emit(Event{Type: EventActionCompleted, Action: "schedule_query", Data: map[string]any{"appointments": appointments}})
}

func (e *Engine) handleScheduleAdd(ctx context.Context, original string) {
	system := `Extract appointment details from the user's request. Today is ` + time.Now().Format("Mon Jan 02 2006") + `. Return JSON:
{"title": "appointment title", "date": "YYYY-MM-DD", "time": "HH:MM", "location": "optional location", "category": "MEDICAL|PERSONAL|SOCIAL|HOME|FINANCIAL|OTHER"}`

	cctx, cancel := context.WithTimeout(ctx, e.cfg.AITimeout)
	content, err := e.deps.Completer.Complete(cctx, llm.Request{
		System:      system,
		User:        original,
		MaxTokens:   150,
		Temperature: 0.2,
	})
	cancel()
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("appointment extraction failed")
		e.speak(ctx, "I had trouble adding that appointment. Please try again.")
		return
	}

	var details struct {
		Title    string `json:"title"`
		Date     string `json:"date"`
		Time     string `json:"time"`
		Location string `json:"location"`
		Category string `json:"category"`
	}
	if raw, ok := intent.ExtractJSON(content); ok {
		if err := json.Unmarshal([]byte(raw), &details); err != nil {
			e.deps.Logger.Warn().Err(err).Msg("malformed appointment details")
		}
	}

	if details.Title == "" || details.Date == "" || details.Time == "" {
		e.speak(ctx, "I need more details to add that appointment. Please tell me the title, date, and time.")
		return
	}

	startAt, err := time.ParseInLocation("2006-01-02 15:04", details.Date+" "+details.Time, time.Local)
	if err != nil {
		e.deps.Logger.Warn().Err(err).Str("date", details.Date).Str("time", details.Time).Msg("unparseable appointment time")
		e.speak(ctx, "I need more details to add that appointment. Please tell me the title, date, and time.")
		return
	}

	category := store.AppointmentCategory(details.Category)
	if !category.Valid() {
		category = store.CategoryOther
	}

	apt := &store.Appointment{
		UserID:   e.cfg.UserID,
		Title:    details.Title,
		Category: category,
		Location: details.Location,
		StartAt:  startAt,
		EndAt:    startAt.Add(time.Hour),
	}
	if err := e.deps.Store.Appointments.Create(ctx, apt); err != nil {
		e.deps.Logger.Error().Err(err).Msg("appointment create failed")
		e.speak(ctx, "I had trouble adding that appointment. Please try again.")
		return
	}

	e.speak(ctx, "Done! I've added "+details.Title+" on "+startAt.Format("Monday, January 2")+" at "+formatClock(startAt)+".")
	e.emit(Event{Type: EventActionCompleted, Action: "schedule_add", Data: map[string]any{"appointment": apt}})
}

func (e *Engine) handleMedicationQuery(ctx context.Context, ents intent.Entities) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	medications, err := e.deps.Store.Medications.FindActiveWithLogs(ctx, e.cfg.UserID, today, today.AddDate(0, 0, 1))
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("medication query failed")
		e.speak(ctx, "I had trouble checking your medications. Please try again.")
		return
	}

	if len(medications) == 0 {
		e.speak(ctx, "You don't have any medications tracked.")
		return
	}

	if strings.Contains(strings.ToLower(ents.Query), "take") {
		var taken, pending []string
		for _, m := range medications {
			if m.Taken() {
				taken = append(taken, m.Name)
			} else {
				pending = append(pending, m.Name)
			}
		}
		switch {
		case len(pending) == 0:
			e.speak(ctx, "Great job! You've taken all your medications for today.")
		case len(taken) == 0:
			e.speak(ctx, "You haven't taken any medications yet today. You still need to take: "+strings.Join(pending, ", ")+".")
		default:
			e.speak(ctx, "You've taken "+strings.Join(taken, ", ")+". You still need to take: "+strings.Join(pending, ", ")+".")
		}
	} else {
		names := make([]string, 0, len(medications))
		for _, m := range medications {
			name := m.Name
			if m.Dosage != "" {
				name += " " + m.Dosage
			}
			names = append(names, name)
		}
		e.speak(ctx, "You're taking "+strconv.Itoa(len(medications))+" medications: "+strings.Join(names, ", ")+".")
	}

	e.emit(Event{Type: EventActionCompleted, Action: "medication_query", Data: map[string]any{"medications": medications}})
}

func (e *Engine) handleMedicationTaken(ctx context.Context) {
	medications, err := e.deps.Store.Medications.FindActive(ctx, e.cfg.UserID)
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("medication lookup failed")
		e.speak(ctx, "I had trouble marking your medications. Please try again.")
		return
	}
	if len(medications) == 0 {
		e.speak(ctx, "You don't have any medications to mark.")
		return
	}

	// TODO: mark only the medication the user named instead of all of them.
	now := time.Now()
	names := make([]string, 0, len(medications))
	for _, med := range medications {
		log := &store.MedicationLog{
			MedicationID: med.ID,
			Status:       store.LogTaken,
			ScheduledAt:  now,
			TakenAt:      now,
			Source:       store.LogSourceUser,
		}
		if err := e.deps.Store.Medications.CreateLog(ctx, log); err != nil {
			e.deps.Logger.Error().Err(err).Str("medication", med.Name).Msg("medication log failed")
			e.speak(ctx, "I had trouble marking your medications. Please try again.")
			return
		}
		names = append(names, med.Name)
	}

	e.speak(ctx, "Done! I've marked your medications as taken.")
	e.emit(Event{Type: EventActionCompleted, Action: "medication_taken", Data: map[string]any{"count": len(medications)}})

	if e.deps.Notifier != nil {
		go e.deps.Notifier.MedicationsTaken(context.Background(), e.cfg.UserID, names)
	}
}

func (e *Engine) handleContactQuery(ctx context.Context, ents intent.Entities) {
	term := ents.Name
	if term == "" {
		term = ents.Relationship
	}

	contacts, err := e.deps.Store.Contacts.Search(ctx, e.cfg.UserID, term, 5)
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("contact search failed")
		e.speak(ctx, "I had trouble looking up that contact. Please try again.")
		return
	}
	if len(contacts) == 0 {
		e.speak(ctx, `I couldn't find a contact matching "`+term+`". Would you like me to add them?`)
		return
	}

	contact := contacts[0]
	reply := contact.Name
	if contact.Phone != "" {
		reply += "'s phone number is " + formatPhone(contact.Phone)
	}
	if contact.Email != "" {
		if contact.Phone != "" {
			reply += ", and their email is " + contact.Email
		} else {
			reply += "'s email is " + contact.Email
		}
	}
	e.speak(ctx, reply+".")
	e.emit(Event{Type: EventActionCompleted, Action: "contact_query", Data: map[string]any{"contact": contact}})
}

func (e *Engine) handleNoteQuery(ctx context.Context, ents intent.Entities) {
	term := ents.Search
	if term == "" {
		term = ents.Topic
	}

	notes, err := e.deps.Store.Notes.Search(ctx, e.cfg.UserID, term, 3)
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("note search failed")
		e.speak(ctx, "I had trouble finding that note. Please try again.")
		return
	}
	if len(notes) == 0 {
		e.speak(ctx, `I couldn't find any notes about "`+term+`".`)
		return
	}

	note := notes[0]
	if note.Title != "" {
		e.speak(ctx, `I found a note called "`+note.Title+`": `+note.Body)
	} else {
		e.speak(ctx, "I found this note: "+note.Body)
	}
	e.emit(Event{Type: EventActionCompleted, Action: "note_query", Data: map[string]any{"note": note}})
}

var notePrefixRe = regexp.MustCompile(`(?i)^(take a note|note|write down|remember|save)`)
var noteSepRe = regexp.MustCompile(`^[:\s]+`)

func (e *Engine) handleNoteAdd(ctx context.Context, original string) {
	content := notePrefixRe.ReplaceAllString(original, "")
	content = noteSepRe.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	if content == "" {
		e.speak(ctx, "What would you like me to note down?")
		return
	}

	note := &store.Note{
		UserID:   e.cfg.UserID,
		Body:     content,
		Category: "GENERAL",
	}
	if err := e.deps.Store.Notes.Create(ctx, note); err != nil {
		e.deps.Logger.Error().Err(err).Msg("note create failed")
		e.speak(ctx, "I had trouble saving that note. Please try again.")
		return
	}

	e.speak(ctx, `Got it! I've saved that note: "`+content+`"`)
	e.emit(Event{Type: EventActionCompleted, Action: "note_add", Data: map[string]any{"note": note}})
}

func (e *Engine) handlePinnedNotes(ctx context.Context) {
	notes, err := e.deps.Store.Notes.FindPinned(ctx, e.cfg.UserID, 5)
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("pinned notes lookup failed")
		e.speak(ctx, "I had trouble reading your pinned notes. Please try again.")
		return
	}
	if len(notes) == 0 {
		e.speak(ctx, "You don't have any pinned notes.")
		return
	}

	plural := ""
	if len(notes) > 1 {
		plural = "s"
	}
	var b strings.Builder
	b.WriteString("You have " + strconv.Itoa(len(notes)) + " pinned note" + plural + ". ")
	for i, note := range notes {
		content := note.Title
		if content == "" {
			content = truncate(note.Body, 50)
		}
		b.WriteString(strconv.Itoa(i+1) + ": " + content + ". ")
	}
	e.speak(ctx, strings.TrimRight(b.String(), " "))
	e.emit(Event{Type: EventActionCompleted, Action: "note_read_pinned", Data: map[string]any{"notes": notes}})
}

func (e *Engine) handleUnknown(ctx context.Context, original string) {
	const system = `You are Boomer AI, a friendly voice assistant for older adults. You help with:
- Schedule and appointments
- Medication tracking
- Contacts and phone numbers
- Notes and reminders

The user said something you're not sure about. Give a brief, friendly response and gently guide them to something you can help with. Keep it under 2 sentences.`

	cctx, cancel := context.WithTimeout(ctx, e.cfg.AITimeout)
	reply, err := e.deps.Completer.Complete(cctx, llm.Request{
		System:      system,
		User:        original,
		MaxTokens:   100,
		Temperature: 0.7,
	})
	cancel()
	if err != nil || reply == "" {
		e.speak(ctx, "I'm not sure about that. I can help you with your schedule, medications, contacts, or notes. What would you like to do?")
		return
	}
	e.speak(ctx, reply)
}

// formatClock renders a time like "10:00 AM".
func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

var phoneRe = regexp.MustCompile(`(\d{3})(\d{3})(\d{4})`)

// formatPhone inserts dashes into a bare 10-digit run so TTS reads the
// number in groups.
func formatPhone(phone string) string {
	return phoneRe.ReplaceAllString(phone, "$1-$2-$3")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
