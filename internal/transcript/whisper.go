// Package transcript converts recorded audio into text using the OpenAI
// Whisper transcription API.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// WhisperClient transcribes whole audio buffers.
type WhisperClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	BaseURL    string
	Language   string
	Prompt     string
}

// NewWhisperClient creates a transcription client with sane defaults.
func NewWhisperClient(apiKey, model string) *WhisperClient {
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    defaultBaseURL,
		Language:   "en",
		Prompt:     "Boomer AI voice assistant for calendar, medications, contacts, and notes.",
	}
}

// Transcribe sends the audio buffer to the transcription endpoint and
// returns the recognized text.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	if err := mw.WriteField("model", c.Model); err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	if c.Language != "" {
		if err := mw.WriteField("language", c.Language); err != nil {
			return "", fmt.Errorf("whisper request: %w", err)
		}
	}
	if c.Prompt != "" {
		if err := mw.WriteField("prompt", c.Prompt); err != nil {
			return "", fmt.Errorf("whisper request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whisper error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("whisper decode: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
