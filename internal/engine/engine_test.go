package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsiemon2/Boomer-AI-Docker/internal/intent"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/llm"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/store"
)

type fakeTranscriber struct {
	text  string
	err   error
	calls int32
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.text, f.err
}

type fakeSynth struct {
	err error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + text), nil
}

type fakeClassifier struct {
	result intent.Result
}

func (f *fakeClassifier) Classify(ctx context.Context, utterance string) intent.Result {
	return f.result
}

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f.response, f.err
}

type fakeNotifier struct {
	notified chan []string
}

func (f *fakeNotifier) MedicationsTaken(ctx context.Context, userID string, names []string) {
	f.notified <- names
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := store.New(db)
	if err := s.Users.Create(context.Background(), &store.User{ID: "u1", Email: "u1@example.com", Name: "Robert"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return s
}

func testEngine(t *testing.T, s *store.Store, deps Deps) *Engine {
	t.Helper()
	if deps.Transcriber == nil {
		deps.Transcriber = &fakeTranscriber{}
	}
	if deps.Synthesizer == nil {
		deps.Synthesizer = &fakeSynth{}
	}
	if deps.Classifier == nil {
		deps.Classifier = &fakeClassifier{result: intent.Result{Intent: intent.Unknown}}
	}
	if deps.Completer == nil {
		deps.Completer = &fakeCompleter{}
	}
	deps.Store = s
	deps.Logger = zerolog.Nop()

	e := New(Config{UserID: "u1", UserName: "Robert", AITimeout: time.Second}, deps)
	t.Cleanup(e.Close)
	return e
}

// collect drains events until the channel is momentarily idle.
func collect(t *testing.T, e *Engine) []Event {
	t.Helper()
	var events []Event
	for {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-time.After(100 * time.Millisecond):
			return events
		}
	}
}

func spoken(t *testing.T, events []Event) string {
	t.Helper()
	for _, ev := range events {
		if ev.Type == EventSpeaking {
			return ev.Text
		}
	}
	t.Fatal("no speaking event")
	return ""
}

func TestFlushAudioDropsShortBuffer(t *testing.T) {
	s := testStore(t)
	tr := &fakeTranscriber{text: "hello"}
	e := testEngine(t, s, Deps{Transcriber: tr})

	e.ProcessAudio(make([]byte, 100))
	e.FlushAudio(context.Background())

	if got := atomic.LoadInt32(&tr.calls); got != 0 {
		t.Errorf("expected no transcription for short audio, got %d calls", got)
	}
	if events := collect(t, e); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestFlushAudioTranscribesAndReplies(t *testing.T) {
	s := testStore(t)
	tr := &fakeTranscriber{text: "hello there"}
	e := testEngine(t, s, Deps{
		Transcriber: tr,
		Classifier:  &fakeClassifier{result: intent.Result{Intent: intent.Greeting}},
	})

	e.ProcessAudio(bytes.Repeat([]byte{1}, minAudioBytes))
	e.FlushAudio(context.Background())

	events := collect(t, e)
	if got := spoken(t, events); got != "Hello! How can I help you today?" {
		t.Errorf("unexpected reply %q", got)
	}
	if got := atomic.LoadInt32(&tr.calls); got != 1 {
		t.Errorf("expected 1 transcription, got %d", got)
	}
}

type blockingTranscriber struct {
	release chan struct{}
	calls   int32
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	return "", nil
}

func TestFlushAudioGuardAgainstConcurrentFlush(t *testing.T) {
	s := testStore(t)
	tr := &blockingTranscriber{release: make(chan struct{})}
	e := testEngine(t, s, Deps{Transcriber: tr})

	e.ProcessAudio(bytes.Repeat([]byte{1}, minAudioBytes))

	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		close(started)
		e.FlushAudio(context.Background())
		close(finished)
	}()
	<-started
	for atomic.LoadInt32(&tr.calls) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	// A second flush while the first is in flight must be a no-op.
	e.ProcessAudio(bytes.Repeat([]byte{1}, minAudioBytes))
	e.FlushAudio(context.Background())
	if got := atomic.LoadInt32(&tr.calls); got != 1 {
		t.Errorf("expected a single transcription cycle, got %d", got)
	}

	close(tr.release)
	<-finished
}

func TestFlushAudioTranscriptionError(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Transcriber: &fakeTranscriber{err: errors.New("asr down")},
	})

	e.ProcessAudio(bytes.Repeat([]byte{1}, minAudioBytes))
	e.FlushAudio(context.Background())

	events := collect(t, e)
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("expected one error event, got %+v", events)
	}
	if events[0].Message != "I had trouble hearing that. Could you try again?" {
		t.Errorf("unexpected message %q", events[0].Message)
	}
}

func TestGreetAddressesUser(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{})

	e.Greet(context.Background())

	got := spoken(t, collect(t, e))
	if !strings.Contains(got, "Robert! I'm your Boomer AI assistant. How can I help you today?") {
		t.Errorf("unexpected greeting %q", got)
	}
	if !strings.HasPrefix(got, "Good ") {
		t.Errorf("greeting should start with time of day, got %q", got)
	}
}

func TestScheduleQueryEmpty(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.ScheduleQuery}},
	})

	e.ProcessText(context.Background(), "what's on my schedule")

	events := collect(t, e)
	if got := spoken(t, events); got != "You don't have any appointments today." {
		t.Errorf("unexpected reply %q", got)
	}

	var action *Event
	for i := range events {
		if events[i].Type == EventActionCompleted {
			action = &events[i]
		}
	}
	if action == nil || action.Action != "schedule_query" {
		t.Fatalf("expected schedule_query action event, got %+v", events)
	}
	data := action.Data.(map[string]any)
	if appts := data["appointments"].([]store.Appointment); appts == nil || len(appts) != 0 {
		t.Errorf("expected empty non-nil appointments, got %+v", appts)
	}
}

func TestScheduleQuerySingleAppointment(t *testing.T) {
	s := testStore(t)
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, now.Location())
	err := s.Appointments.Create(context.Background(), &store.Appointment{
		UserID:   "u1",
		Title:    "Dr. Smith Checkup",
		Location: "123 Medical Center Dr, Suite 200",
		StartAt:  start,
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.ScheduleQuery}},
	})
	e.ProcessText(context.Background(), "what's on my schedule today")

	want := "You have one appointment today: Dr. Smith Checkup at 10:00 AM at 123 Medical Center Dr, Suite 200."
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScheduleQueryTomorrowLabel(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{
			Intent:   intent.ScheduleQuery,
			Entities: intent.Entities{Date: "tomorrow"},
		}},
	})
	e.ProcessText(context.Background(), "anything tomorrow?")

	if got := spoken(t, collect(t, e)); got != "You don't have any appointments tomorrow." {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestScheduleAddRoundTrip(t *testing.T) {
	s := testStore(t)
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.ScheduleAdd}},
		Completer: &fakeCompleter{
			response: `{"title": "Eye exam", "date": "` + date + `", "time": "14:30", "location": "", "category": "MEDICAL"}`,
		},
	})
	e.ProcessText(context.Background(), "add an eye exam tomorrow at 2:30pm")

	got := spoken(t, collect(t, e))
	if !strings.HasPrefix(got, "Done! I've added Eye exam on ") || !strings.HasSuffix(got, " at 2:30 PM.") {
		t.Errorf("unexpected reply %q", got)
	}

	from, _ := time.ParseInLocation("2006-01-02", date, time.Local)
	appts, err := s.Appointments.FindInRange(context.Background(), "u1", from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(appts) != 1 || appts[0].Title != "Eye exam" {
		t.Fatalf("expected stored appointment, got %+v", appts)
	}
	if appts[0].Category != store.CategoryMedical {
		t.Errorf("expected MEDICAL category, got %s", appts[0].Category)
	}
	if !appts[0].EndAt.Equal(appts[0].StartAt.Add(time.Hour)) {
		t.Errorf("expected 1 hour default duration")
	}
}

func TestScheduleAddMissingDetails(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.ScheduleAdd}},
		Completer:  &fakeCompleter{response: `{"title": "Eye exam"}`},
	})
	e.ProcessText(context.Background(), "add an eye exam")

	want := "I need more details to add that appointment. Please tell me the title, date, and time."
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMedicationQueryAdherence(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	meds := []store.Medication{
		{UserID: "u1", Name: "Lisinopril", Dosage: "10mg", IsActive: true},
		{UserID: "u1", Name: "Metformin", Dosage: "500mg", IsActive: true},
	}
	for i := range meds {
		if err := s.Medications.Create(ctx, &meds[i]); err != nil {
			t.Fatalf("create medication: %v", err)
		}
	}
	now := time.Now()
	err := s.Medications.CreateLog(ctx, &store.MedicationLog{
		MedicationID: meds[0].ID,
		Status:       store.LogTaken,
		ScheduledAt:  now,
		TakenAt:      now,
	})
	if err != nil {
		t.Fatalf("create log: %v", err)
	}

	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{
			Intent:   intent.MedicationQuery,
			Entities: intent.Entities{Query: "did I take my meds"},
		}},
	})
	e.ProcessText(ctx, "did I take my meds")

	want := "You've taken Lisinopril. You still need to take: Metformin."
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMedicationQueryList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	meds := []store.Medication{
		{UserID: "u1", Name: "Lisinopril", Dosage: "10mg", IsActive: true},
		{UserID: "u1", Name: "Metformin", Dosage: "500mg", IsActive: true},
	}
	for i := range meds {
		if err := s.Medications.Create(ctx, &meds[i]); err != nil {
			t.Fatalf("create medication: %v", err)
		}
	}

	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.MedicationQuery}},
	})
	e.ProcessText(ctx, "what medications am I on")

	want := "You're taking 2 medications: Lisinopril 10mg, Metformin 500mg."
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMedicationTakenMarksAllAndNotifies(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	meds := []store.Medication{
		{UserID: "u1", Name: "Lisinopril", IsActive: true},
		{UserID: "u1", Name: "Metformin", IsActive: true},
	}
	for i := range meds {
		if err := s.Medications.Create(ctx, &meds[i]); err != nil {
			t.Fatalf("create medication: %v", err)
		}
	}

	notifier := &fakeNotifier{notified: make(chan []string, 1)}
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.MedicationTaken}},
		Notifier:   notifier,
	})
	e.ProcessText(ctx, "mark my meds as taken")

	if got := spoken(t, collect(t, e)); got != "Done! I've marked your medications as taken." {
		t.Errorf("unexpected reply %q", got)
	}

	select {
	case names := <-notifier.notified:
		if len(names) != 2 {
			t.Errorf("expected 2 notified names, got %v", names)
		}
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	withLogs, err := s.Medications.FindActiveWithLogs(ctx, "u1", today, today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("find with logs: %v", err)
	}
	for _, m := range withLogs {
		if !m.Taken() {
			t.Errorf("%s should be marked taken", m.Name)
		}
	}
}

func TestContactQueryFormatsPhone(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	err := s.Contacts.Create(ctx, &store.Contact{
		UserID:       "u1",
		Name:         "Sarah Johnson",
		Phone:        "5559876543",
		Email:        "sarah@example.com",
		Relationship: "DAUGHTER",
	})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{
			Intent:   intent.ContactQuery,
			Entities: intent.Entities{Relationship: "daughter"},
		}},
	})
	e.ProcessText(ctx, "what's my daughter's number")

	want := "Sarah Johnson's phone number is 555-987-6543, and their email is sarah@example.com."
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestContactQueryNoMatch(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{
			Intent:   intent.ContactCall,
			Entities: intent.Entities{Name: "Mike"},
		}},
	})
	e.ProcessText(context.Background(), "call Mike")

	want := `I couldn't find a contact matching "Mike". Would you like me to add them?`
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNoteAddStripsPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.NoteAdd}},
	})
	e.ProcessText(ctx, "Take a note: the garage code is 4182")

	want := `Got it! I've saved that note: "the garage code is 4182"`
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	notes, err := s.Notes.Search(ctx, "u1", "garage", 3)
	if err != nil {
		t.Fatalf("search notes: %v", err)
	}
	if len(notes) != 1 || notes[0].Body != "the garage code is 4182" {
		t.Fatalf("expected stored note, got %+v", notes)
	}
}

func TestNoteAddEmptyContent(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.NoteAdd}},
	})
	e.ProcessText(context.Background(), "take a note")

	if got := spoken(t, collect(t, e)); got != "What would you like me to note down?" {
		t.Errorf("unexpected reply %q", got)
	}

	notes, err := s.Notes.Search(context.Background(), "u1", "", 10)
	if err != nil {
		t.Fatalf("search notes: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("expected no notes stored, got %d", len(notes))
	}
}

func TestPinnedNotes(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	err := s.Notes.Create(ctx, &store.Note{
		UserID:   "u1",
		Title:    "Garage code",
		Body:     "Garage code is 4182",
		IsPinned: true,
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.NoteReadPinned}},
	})
	e.ProcessText(ctx, "read my pinned notes")

	if got := spoken(t, collect(t, e)); got != "You have 1 pinned note. 1: Garage code." {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestUnknownFallbackWhenCompleterFails(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.Unknown}},
		Completer:  &fakeCompleter{err: errors.New("llm down")},
	})
	e.ProcessText(context.Background(), "what is the weather")

	want := "I'm not sure about that. I can help you with your schedule, medications, contacts, or notes. What would you like to do?"
	if got := spoken(t, collect(t, e)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSpeakFallsBackToTextOnSynthesisFailure(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{
		Synthesizer: &fakeSynth{err: errors.New("tts down")},
		Classifier:  &fakeClassifier{result: intent.Result{Intent: intent.Greeting}},
	})
	e.ProcessText(context.Background(), "hello")

	events := collect(t, e)
	if len(events) == 0 || events[0].Type != EventSpeaking {
		t.Fatalf("expected speaking event, got %+v", events)
	}
	if events[0].Text == "" || events[0].Audio != nil {
		t.Errorf("expected text-only event, got %+v", events[0])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := testStore(t)
	e := testEngine(t, s, Deps{})
	e.Close()
	e.Close()

	// emit after close must not panic or block
	e.emit(Event{Type: EventSpeaking, Text: "x"})

	if _, ok := <-e.Events(); ok {
		t.Error("expected closed events channel")
	}
}
