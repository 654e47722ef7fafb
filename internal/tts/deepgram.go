package tts

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
)

// DeepgramClient synthesizes speech with Deepgram Aura over websocket.
// Output is 48kHz linear16 PCM. The voice parameter is ignored; Deepgram
// selects the voice through the configured model.
type DeepgramClient struct {
	apiKey     string
	model      string
	sampleRate int
	encoding   string
}

// NewDeepgramClient creates a Deepgram speech client.
func NewDeepgramClient(apiKey, model string) *DeepgramClient {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &DeepgramClient{apiKey: apiKey, model: model, sampleRate: 48000, encoding: "linear16"}
}

// Synthesize renders text and returns the collected PCM buffer. The stream
// is considered finished after a short idle window with no new audio, or
// after a hard deadline.
func (d *DeepgramClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("deepgram: API key missing")
	}
	if text == "" {
		return nil, fmt.Errorf("deepgram: empty text")
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      d.model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var mu sync.Mutex
	var audio []byte
	var lastRecvUnix int64
	var seenAudio int32

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
		atomic.StoreInt32(&seenAudio, 1)
		mu.Lock()
		audio = append(audio, data...)
		mu.Unlock()
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return nil, fmt.Errorf("deepgram: create ws client: %w", err)
	}

	stopped := false
	stopClient := func() {
		if !stopped {
			stopped = true
			dg.Stop()
		}
	}
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return nil, fmt.Errorf("deepgram: connect failed")
	}

	if err := dg.SpeakWithText(text); err != nil {
		return nil, fmt.Errorf("deepgram: speak text: %w", err)
	}
	if err := dg.Flush(); err != nil {
		log.Printf("deepgram: flush error: %v", err)
	}

	idleWindow := 400 * time.Millisecond
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(12 * time.Second)
	for {
		select {
		case <-ctx.Done():
			stopClient()
			return nil, ctx.Err()
		case <-ticker.C:
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if time.Since(last) > idleWindow {
					stopClient()
					mu.Lock()
					defer mu.Unlock()
					return audio, nil
				}
			}
			if time.Now().After(deadline) {
				stopClient()
				mu.Lock()
				defer mu.Unlock()
				if len(audio) == 0 {
					return nil, fmt.Errorf("deepgram: no audio received")
				}
				return audio, nil
			}
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
