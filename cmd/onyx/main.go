package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/apexai-labs/onyx/internal/adapter/deepgram"
	"github.com/apexai-labs/onyx/internal/adapter/elevenlabs"
	"github.com/apexai-labs/onyx/internal/adapter/openai"
	"github.com/apexai-labs/onyx/internal/cache"
	"github.com/apexai-labs/onyx/internal/callrecord"
	"github.com/apexai-labs/onyx/internal/config"
	"github.com/apexai-labs/onyx/internal/pipeline"
	"github.com/apexai-labs/onyx/internal/server"
	"github.com/apexai-labs/onyx/internal/session"
	"github.com/apexai-labs/onyx/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer("onyx", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	responseCache, err := cache.New(cache.NewFileStore(cfg.Cache.Path))
	if err != nil {
		log.Fatalf("Failed to load response cache: %v", err)
	}
	logger.Info("response cache loaded",
		slog.String("path", cfg.Cache.Path),
		slog.Int("questions", responseCache.Len()))

	var recorder *callrecord.Store
	if cfg.CallLog.Path != "" {
		recorder, err = callrecord.Open(cfg.CallLog.Path)
		if err != nil {
			log.Fatalf("Failed to open call log: %v", err)
		}
		defer recorder.Close()
	}

	completer, err := openai.NewCompleter(cfg.OpenAI.APIKey,
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithTokenBudget(cfg.OpenAI.TokenBudget),
	)
	if err != nil {
		log.Fatalf("Failed to create completer: %v", err)
	}

	registry := session.NewRegistry(logger)
	p := pipeline.New(
		registry,
		responseCache,
		deepgram.New(cfg.Deepgram.APIKey),
		completer,
		elevenlabs.New(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.VoiceID),
		recorderOrNil(recorder),
		logger,
		pipeline.Config{
			SystemPrompt:      cfg.Agent.SystemPrompt,
			TranscribeTimeout: config.Duration(cfg.Timeouts.Transcribe, pipeline.DefaultTranscribeTimeout),
			CompleteTimeout:   config.Duration(cfg.Timeouts.Complete, pipeline.DefaultCompleteTimeout),
			SynthesizeTimeout: config.Duration(cfg.Timeouts.Synthesize, pipeline.DefaultSynthesizeTimeout),
		},
	)

	srv := server.New(cfg.Server.Port, logger)
	streamURL := fmt.Sprintf("wss://%s/media-stream", cfg.Server.PublicHost)
	srv.Router.Post("/incoming-call", server.IncomingCallHandler(logger, cfg.Agent.SayVoice, streamURL))
	srv.Router.Get("/media-stream", server.StreamHandler(p, logger))
	srv.Router.Get("/calls", server.CallLogHandler(recorder, logger))
	srv.Router.Get("/healthz", server.HealthHandler)
	srv.Router.Get("/", server.HealthHandler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	registry.CloseAll()
	logger.Info("shutdown complete")
}

// recorderOrNil keeps a typed-nil *callrecord.Store out of the pipeline's
// Recorder interface.
func recorderOrNil(store *callrecord.Store) pipeline.Recorder {
	if store == nil {
		return nil
	}
	return store
}
