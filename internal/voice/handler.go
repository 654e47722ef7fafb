// Package voice exposes the assistant engine over a websocket session
// protocol: the client streams base64 audio chunks or typed text, and
// receives synthesized audio, transcripts, and action results.
package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dsiemon2/Boomer-AI-Docker/internal/engine"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/llm"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/store"
)

// Deps are the collaborators handed to each session's engine.
type Deps struct {
	Store       *store.Store
	Transcriber engine.Transcriber
	Synthesizer engine.Synthesizer
	Classifier  engine.Classifier
	Completer   llm.Completer
	Notifier    engine.Notifier

	DefaultUserID string
	DefaultVoice  string
	AITimeout     time.Duration
	Logger        zerolog.Logger
}

type session struct {
	conn      *websocket.Conn
	engine    *engine.Engine
	writeMu   sync.Mutex
	listening bool
}

// Handler upgrades HTTP requests to voice websocket sessions.
type Handler struct {
	deps     Deps
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[*websocket.Conn]*session
}

// NewHandler creates a voice websocket handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[*websocket.Conn]*session),
	}
}

// ActiveSessions returns the number of open voice sessions.
func (h *Handler) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ServeWS upgrades the request and runs the session until the client
// disconnects.
func (h *Handler) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.deps.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return err
	}
	h.handleConn(context.Background(), conn, c.QueryParam("user"))
	return nil
}

func (h *Handler) handleConn(ctx context.Context, conn *websocket.Conn, userID string) {
	h.deps.Logger.Info().Msg("voice session connected")

	if userID == "" {
		userID = h.deps.DefaultUserID
	}
	userName := "Friend"
	if user, err := h.deps.Store.Users.GetByID(ctx, userID); err == nil {
		userName = user.Name
	} else if err != store.ErrNotFound {
		h.deps.Logger.Error().Err(err).Str("user", userID).Msg("user lookup failed")
	}

	eng := engine.New(engine.Config{
		Voice:     h.deps.DefaultVoice,
		UserName:  userName,
		UserID:    userID,
		AITimeout: h.deps.AITimeout,
	}, engine.Deps{
		Transcriber: h.deps.Transcriber,
		Synthesizer: h.deps.Synthesizer,
		Classifier:  h.deps.Classifier,
		Completer:   h.deps.Completer,
		Store:       h.deps.Store,
		Notifier:    h.deps.Notifier,
		Logger:      h.deps.Logger.With().Str("user", userID).Logger(),
	})

	sess := &session{conn: conn, engine: eng}
	h.mu.Lock()
	h.sessions[conn] = sess
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.sessions, conn)
		h.mu.Unlock()
		eng.Close()
		conn.Close()
		h.deps.Logger.Info().Msg("voice session disconnected")
	}()

	go h.pumpEvents(sess)

	h.send(sess, serverMessage{Type: "ready"})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.deps.Logger.Error().Err(err).Msg("bad client message")
			h.send(sess, serverMessage{Type: "error", Message: "Invalid message format"})
			continue
		}
		h.handleMessage(ctx, sess, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, sess *session, msg clientMessage) {
	switch msg.Type {
	case "init":
		if msg.Voice != "" {
			sess.engine.SetVoice(msg.Voice)
		}
		sess.engine.Greet(ctx)

	case "set_voice":
		if msg.Voice != "" {
			sess.engine.SetVoice(msg.Voice)
		}

	case "start_listening":
		sess.listening = true

	case "stop_listening":
		sess.listening = false
		sess.engine.FlushAudio(ctx)

	case "audio":
		if msg.Audio == "" || !sess.listening {
			return
		}
		chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			h.send(sess, serverMessage{Type: "error", Message: "Invalid audio data"})
			return
		}
		sess.engine.ProcessAudio(chunk)

	case "text":
		if msg.Text == "" {
			return
		}
		h.send(sess, serverMessage{Type: "user_transcript", Text: msg.Text})
		sess.engine.ProcessText(ctx, msg.Text)
	}
}

// pumpEvents forwards engine events to the client until the engine closes.
func (h *Handler) pumpEvents(sess *session) {
	for ev := range sess.engine.Events() {
		switch ev.Type {
		case engine.EventSpeaking:
			if len(ev.Audio) > 0 {
				h.send(sess, serverMessage{
					Type:  "audio",
					Audio: base64.StdEncoding.EncodeToString(ev.Audio),
				})
			}
			if ev.Text != "" {
				h.send(sess, serverMessage{Type: "assistant_transcript", Text: ev.Text})
			}

		case engine.EventActionCompleted:
			h.send(sess, serverMessage{
				Type:    "action_result",
				Success: true,
				Action:  ev.Action,
				Data:    ev.Data,
			})

		case engine.EventError:
			message := ev.Message
			if message == "" {
				message = "An error occurred"
			}
			h.send(sess, serverMessage{Type: "error", Message: message})
		}
	}
}

func (h *Handler) send(sess *session, msg serverMessage) {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if err := sess.conn.WriteJSON(msg); err != nil {
		h.deps.Logger.Debug().Err(err).Msg("websocket write failed")
	}
}
