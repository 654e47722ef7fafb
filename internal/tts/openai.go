// Package tts turns reply text into audio. Two providers are supported:
// the OpenAI speech API and Deepgram Aura over websocket.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openaiBaseURL = "https://api.openai.com/v1"

// OpenAIClient synthesizes speech with the OpenAI audio API. Output is MP3.
type OpenAIClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	BaseURL    string
}

// NewOpenAIClient creates a speech client with sane defaults.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "tts-1"
	}
	return &OpenAIClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    openaiBaseURL,
	}
}

// Synthesize renders text with the given voice and returns MP3 bytes.
func (c *OpenAIClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = "alloy"
	}
	payload, err := json.Marshal(map[string]string{
		"model":           c.Model,
		"input":           text,
		"voice":           voice,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts error: status=%d body=%s", resp.StatusCode, string(b))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts error: empty audio")
	}
	return audio, nil
}
