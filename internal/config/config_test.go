package config

import (
	"os"
	"testing"
)

// unsetenv clears a variable for the test while letting t.Setenv restore
// the original value afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, key := range []string{
		"TTS_PROVIDER",
		"DEEPGRAM_API_KEY",
		"AI_TIMEOUT_SECONDS",
		"HTTP_ADDRESS",
		"OPENAI_CHAT_MODEL",
		"DEFAULT_VOICE",
	} {
		unsetenv(t, key)
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress != ":8080" {
		t.Errorf("expected default address :8080, got %q", cfg.HTTPAddress)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("expected default chat model, got %q", cfg.ChatModel)
	}
	if cfg.TTSProvider != "openai" {
		t.Errorf("expected default TTS provider openai, got %q", cfg.TTSProvider)
	}
	if cfg.DefaultVoice != "alloy" {
		t.Errorf("expected default voice alloy, got %q", cfg.DefaultVoice)
	}
	if cfg.AITimeout().Seconds() != 15 {
		t.Errorf("expected 15s AI timeout, got %v", cfg.AITimeout())
	}
}

func TestLoadRequiresOpenAIKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}
}

func TestLoadRejectsUnknownTTSProvider(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TTS_PROVIDER", "espeak")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown TTS provider")
	}
}

func TestLoadDeepgramProviderRequiresKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TTS_PROVIDER", "deepgram")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DEEPGRAM_API_KEY")
	}

	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DeepgramModel != "aura-2-thalia-en" {
		t.Errorf("expected default deepgram model, got %q", cfg.DeepgramModel)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AI_TIMEOUT_SECONDS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}
