package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careline/voice-gateway/internal/auth"
	"github.com/careline/voice-gateway/internal/callstore"
	"github.com/careline/voice-gateway/internal/config"
	"github.com/careline/voice-gateway/internal/dialogue"
	"github.com/careline/voice-gateway/internal/observability"
	"github.com/careline/voice-gateway/internal/pool"
	"github.com/careline/voice-gateway/internal/session"
	"github.com/careline/voice-gateway/internal/stt"
	"github.com/careline/voice-gateway/internal/transport"
	"github.com/careline/voice-gateway/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("stt_engine", cfg.STTEngine).
		Str("tts_engine", cfg.TTSEngine).
		Str("dialogue_url", cfg.DialogueURL).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice Gateway Service starting")

	// Speech-to-text engine
	var sttEngine stt.Engine
	switch cfg.STTEngine {
	case "deepgram":
		sttEngine = stt.NewDeepgramEngine(cfg)
	default:
		sttEngine = stt.NewHTTPEngine(cfg)
	}
	transcriber := stt.NewTranscriber(
		sttEngine,
		pool.New("stt", cfg.STTWorkers, time.Duration(cfg.STTTimeout)*time.Second),
		logger,
	)

	// Text-to-speech engine
	var ttsEngine tts.Engine
	switch cfg.TTSEngine {
	case "cartesia":
		ttsEngine = tts.NewCartesiaEngine(cfg)
	default:
		ttsEngine = tts.NewPiperEngine(cfg, logger)
	}
	synthesizer := tts.NewSynthesizer(
		ttsEngine,
		tts.NewRegistry(cfg.DefaultLanguage),
		pool.New("tts", cfg.TTSWorkers, time.Duration(cfg.TTSTimeout)*time.Second),
		logger,
	)

	// Call record persistence
	var store callstore.Store
	if cfg.DatabaseURL != "" {
		pg, err := callstore.NewPostgres(context.Background(), cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to call record database")
		}
		store = pg
	} else {
		logger.Warn().Msg("No DATABASE_URL configured, call records are in-memory only")
		store = callstore.NewMemory()
	}
	defer store.Close()

	dialogueClient := dialogue.NewClient(cfg, logger)
	orchestrator := session.NewOrchestrator(dialogueClient, cfg, logger, observability.NewSessionMetrics("global"))

	var validator auth.Validator
	if v := auth.NewHTTPValidator(cfg, logger); v != nil {
		validator = v
	}

	handler := transport.NewHandler(cfg, transcriber, synthesizer, orchestrator, validator, store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS())
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	checks := map[string]observability.HealthCheckFunc{
		"dialogue": func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.DialogueURL, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			resp.Body.Close()
			return nil
		},
		"voices": func(ctx context.Context) error {
			if synthesizer.Voices().Default() == nil {
				return fmt.Errorf("no voice for default language %q", cfg.DefaultLanguage)
			}
			return nil
		},
		"store": store.Ping,
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: mux,
		// No global read/write timeouts: websocket calls are long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
