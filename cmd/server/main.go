package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsiemon2/Boomer-AI-Docker/internal/config"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/engine"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/httpserver"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/intent"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/llm"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/notify"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/store"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/transcript"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/tts"
	"github.com/dsiemon2/Boomer-AI-Docker/internal/voice"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "boomer-ai").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := store.Open(store.Config{Path: cfg.DatabasePath})
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}
	st := store.New(db)
	if cfg.SeedDemoData {
		if err := st.Seed(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("demo data seeding failed")
		}
	}

	completer := llm.NewClient(cfg.OpenAIKey, cfg.ChatModel)
	transcriber := transcript.NewWhisperClient(cfg.OpenAIKey, cfg.WhisperModel)

	var synthesizer engine.Synthesizer
	switch cfg.TTSProvider {
	case "deepgram":
		synthesizer = tts.NewDeepgramClient(cfg.DeepgramKey, cfg.DeepgramModel)
	default:
		synthesizer = tts.NewOpenAIClient(cfg.OpenAIKey, cfg.TTSModel)
	}

	classifier := intent.NewClassifier(completer, cfg.AITimeout(), logger)

	sms := notify.NewSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	var notifier engine.Notifier
	if n := notify.NewCaregiverNotifier(sms, cfg.CaregiverPhone, logger); n != nil {
		notifier = n
	}

	voiceHandler := voice.NewHandler(voice.Deps{
		Store:         st,
		Transcriber:   transcriber,
		Synthesizer:   synthesizer,
		Classifier:    classifier,
		Completer:     completer,
		Notifier:      notifier,
		DefaultUserID: cfg.DefaultUserID,
		DefaultVoice:  cfg.DefaultVoice,
		AITimeout:     cfg.AITimeout(),
		Logger:        logger,
	})

	e := httpserver.New(voiceHandler)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.HTTPAddress).Msg("server listening")
		serverErrors <- e.Start(cfg.HTTPAddress)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		_ = e.Close()
	}
}
