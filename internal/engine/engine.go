// Package engine is the conversational core: it turns recorded audio or
// typed text into a classified intent, executes the matching action against
// the store, and emits speaking and action events for the transport layer.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsiemon2/Boomer-AI-Docker/internal/intent"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/llm"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/store"
)

// Audio shorter than this is treated as noise and dropped (~0.5s of webm).
const minAudioBytes = 12000

// Classifier turns an utterance into an intent result.
type Classifier interface {
	Classify(ctx context.Context, utterance string) intent.Result
}

// Config holds per-session engine settings.
type Config struct {
	Voice     string
	UserName  string
	UserID    string
	AITimeout time.Duration
}

// Deps are the engine's collaborators.
type Deps struct {
	Transcriber Transcriber
	Synthesizer Synthesizer
	Classifier  Classifier
	Completer   llm.Completer
	Store       *store.Store
	Notifier    Notifier
	Logger      zerolog.Logger
}

// Engine drives one voice session. Events are delivered on the channel
// returned by Events; the engine never blocks on a slow consumer.
type Engine struct {
	cfg  Config
	deps Deps

	mu       sync.Mutex
	voice    string
	audioBuf [][]byte
	flushing bool

	// turnMu serializes turns so overlapping inputs cannot interleave replies.
	turnMu sync.Mutex

	evMu   sync.RWMutex
	closed bool
	events chan Event
}

// New creates an engine for one session.
func New(cfg Config, deps Deps) *Engine {
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}
	if cfg.UserName == "" {
		cfg.UserName = "Friend"
	}
	if cfg.UserID == "" {
		cfg.UserID = store.DemoUserID
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 15 * time.Second
	}
	return &Engine{
		cfg:    cfg,
		deps:   deps,
		voice:  cfg.Voice,
		events: make(chan Event, 64),
	}
}

// Events returns the channel on which engine events are delivered. The
// channel is closed by Close.
func (e *Engine) Events() <-chan Event {
	return e.events
}

func (e *Engine) emit(ev Event) {
	e.evMu.RLock()
	defer e.evMu.RUnlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.deps.Logger.Warn().Str("type", string(ev.Type)).Msg("event dropped, consumer too slow")
	}
}

// Close releases the session. It is safe to call more than once.
func (e *Engine) Close() {
	e.evMu.Lock()
	if e.closed {
		e.evMu.Unlock()
		return
	}
	e.closed = true
	close(e.events)
	e.evMu.Unlock()

	e.mu.Lock()
	e.audioBuf = nil
	e.mu.Unlock()
}

// SetVoice changes the TTS voice for subsequent replies.
func (e *Engine) SetVoice(voice string) {
	if voice == "" {
		return
	}
	e.mu.Lock()
	e.voice = voice
	e.mu.Unlock()
}

// Greet speaks a time-of-day greeting addressed to the user.
func (e *Engine) Greet(ctx context.Context) {
	greeting := "Good evening"
	switch hour := time.Now().Hour(); {
	case hour < 12:
		greeting = "Good morning"
	case hour < 17:
		greeting = "Good afternoon"
	}
	e.speak(ctx, greeting+", "+e.cfg.UserName+"! I'm your Boomer AI assistant. How can I help you today?")
}

// ProcessAudio appends a recorded chunk to the session buffer.
func (e *Engine) ProcessAudio(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	e.mu.Lock()
	e.audioBuf = append(e.audioBuf, chunk)
	e.mu.Unlock()
}

// FlushAudio transcribes the accumulated buffer and runs the resulting
// utterance through a full turn. Buffers too short to be speech are dropped.
func (e *Engine) FlushAudio(ctx context.Context) {
	e.mu.Lock()
	if len(e.audioBuf) == 0 || e.flushing {
		e.mu.Unlock()
		return
	}
	e.flushing = true
	total := 0
	for _, c := range e.audioBuf {
		total += len(c)
	}
	audio := make([]byte, 0, total)
	for _, c := range e.audioBuf {
		audio = append(audio, c...)
	}
	e.audioBuf = nil
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.flushing = false
		e.mu.Unlock()
	}()

	if len(audio) < minAudioBytes {
		return
	}

	tctx, cancel := context.WithTimeout(ctx, e.cfg.AITimeout)
	text, err := e.deps.Transcriber.Transcribe(tctx, audio)
	cancel()
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("transcription failed")
		e.emit(Event{Type: EventError, Message: "I had trouble hearing that. Could you try again?"})
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	e.deps.Logger.Info().Str("text", text).Msg("user said")
	e.ProcessText(ctx, text)
}

// ProcessText runs one full turn: classify the utterance and execute the
// matching action. Panics inside a handler degrade to an apology reply.
func (e *Engine) ProcessText(ctx context.Context, text string) {
	e.turnMu.Lock()
	defer e.turnMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.deps.Logger.Error().Interface("panic", r).Msg("turn panicked")
			e.speak(ctx, "I'm sorry, I had trouble understanding that. Could you try saying it differently?")
		}
	}()

	res := e.deps.Classifier.Classify(ctx, text)
	e.deps.Logger.Info().
		Str("intent", string(res.Intent)).
		Float64("confidence", res.Confidence).
		Msg("parsed intent")

	e.dispatch(ctx, res, text)
}

// speak synthesizes the reply and emits a speaking event. When synthesis
// fails the text is still delivered so the client can display it.
func (e *Engine) speak(ctx context.Context, text string) {
	e.mu.Lock()
	voice := e.voice
	e.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, e.cfg.AITimeout)
	audio, err := e.deps.Synthesizer.Synthesize(sctx, text, voice)
	cancel()
	if err != nil {
		e.deps.Logger.Error().Err(err).Msg("speech synthesis failed")
		e.emit(Event{Type: EventSpeaking, Text: text})
		return
	}
	e.emit(Event{Type: EventSpeaking, Text: text, Audio: audio})
}
