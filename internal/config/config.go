package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string `envconfig:"HTTP_ADDRESS" default:":8080"`

	OpenAIKey    string `envconfig:"OPENAI_API_KEY"`
	ChatModel    string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	WhisperModel string `envconfig:"OPENAI_WHISPER_MODEL" default:"whisper-1"`

	// TTSProvider selects the synthesis backend: "openai" or "deepgram".
	TTSProvider   string `envconfig:"TTS_PROVIDER" default:"openai"`
	TTSModel      string `envconfig:"OPENAI_TTS_MODEL" default:"tts-1"`
	DeepgramKey   string `envconfig:"DEEPGRAM_API_KEY"`
	DeepgramModel string `envconfig:"DEEPGRAM_TTS_MODEL" default:"aura-2-thalia-en"`

	DatabasePath string `envconfig:"DATABASE_PATH" default:"data/boomer.db"`
	SeedDemoData bool   `envconfig:"SEED_DEMO_DATA" default:"true"`

	DefaultUserID string `envconfig:"DEFAULT_USER_ID" default:"demo-user"`
	DefaultVoice  string `envconfig:"DEFAULT_VOICE" default:"alloy"`

	// AITimeoutSeconds bounds every external AI call (transcription,
	// classification, extraction, synthesis).
	AITimeoutSeconds int `envconfig:"AI_TIMEOUT_SECONDS" default:"15"`

	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER"`
	CaregiverPhone   string `envconfig:"CAREGIVER_PHONE"`
}

// Load reads .env (when present) and the environment, and validates the
// result. Missing AI credentials are a hard error: misconfiguration must
// surface at startup, never mid-session.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		log.Warn().Msg("Twilio not configured - SMS notifications disabled")
	}

	return cfg, nil
}

// Validate checks the parts of the configuration the server cannot run without.
func (c Config) Validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	switch c.TTSProvider {
	case "openai", "deepgram":
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q", c.TTSProvider)
	}
	if c.TTSProvider == "deepgram" && c.DeepgramKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required when TTS_PROVIDER=deepgram")
	}
	if c.AITimeoutSeconds <= 0 {
		return fmt.Errorf("AI_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// AITimeout returns the per-call AI timeout as a duration.
func (c Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}
