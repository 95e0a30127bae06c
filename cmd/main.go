package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"live-dictation-service/internal/app"
	"live-dictation-service/internal/capture"
	"live-dictation-service/internal/config"
	"live-dictation-service/internal/correct"
	"live-dictation-service/internal/engine"
	googleengine "live-dictation-service/internal/engine/google"
	mockengine "live-dictation-service/internal/engine/mock"
	openaiengine "live-dictation-service/internal/engine/openai"
	"live-dictation-service/internal/events"
	"live-dictation-service/internal/http"
	"live-dictation-service/internal/observability"
	"live-dictation-service/internal/session"
)

func main() {
	wavPath := flag.String("wav", "", "path to a WAV file to dictate from")
	realtime := flag.Bool("realtime", false, "pace WAV playback at recording speed")
	flag.Parse()

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application start failed")
	}
	defer application.Shutdown()

	obs := observability.NewServer(cfg.Observability.MetricsAddr)
	obs.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicSegment:   cfg.Kafka.TopicSegment,
		TopicCorrected: cfg.Kafka.TopicCorrected,
		Principal:      cfg.Service.Principal,
	})
	defer publisher.Close()

	eng, err := buildEngine(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Engine.Provider).Msg("Engine setup failed")
	}

	if *wavPath == "" {
		log.Fatal().Msg("No audio source configured, pass -wav <file>")
	}
	device := capture.NewWAVFileDevice(*wavPath)
	device.Realtime = *realtime || cfg.Audio.Realtime

	var corrector *correct.Engine
	if cfg.Correction.Enabled {
		lex := correct.DefaultLexicon()
		if cfg.Correction.LexiconPath != "" {
			lex, err = correct.LoadLexicon(cfg.Correction.LexiconPath)
			if err != nil {
				log.Fatal().Err(err).Str("path", cfg.Correction.LexiconPath).Msg("Lexicon load failed")
			}
		}
		corrector = correct.NewEngine(lex)
	}

	sess := session.New(session.Options{
		Engine: eng,
		Device: device,
		Locale: cfg.Engine.Locale,
		Capture: capture.Config{
			ChunkDuration: cfg.Audio.ChunkDuration,
			TargetRate:    cfg.Audio.TargetRateHz,
		},
		Corrector: corrector,
		Publisher: publisher,
	})
	defer sess.Close()
	obs.SetReadiness(func() bool { return sess.Status().ModelState == "READY" })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := &nethttp.Server{
		Addr:    cfg.Service.HTTPAddr,
		Handler: http.NewRouter(sess),
	}
	go func() {
		log.Info().Str("addr", cfg.Service.HTTPAddr).Msg("Status API listening")
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error().Err(err).Msg("Status API server failed")
		}
	}()
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = api.Shutdown(sctx)
	}()

	if err := sess.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Session start failed")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	captureDone := make(chan error, 1)
	go func() {
		captureDone <- sess.Wait(ctx)
	}()

	select {
	case <-sig:
		log.Info().Msg("Signal received, stopping recording")
		if err := sess.Stop(); err != nil {
			log.Error().Err(err).Msg("Stop failed")
		}
	case err := <-captureDone:
		if err != nil {
			log.Error().Err(err).Msg("Capture ended with error")
		}
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer drainCancel()
	if err := sess.Drain(drainCtx); err != nil {
		log.Error().Err(err).Msg("Drain failed, transcript may be incomplete")
	}

	printTranscript(sess)
}

func buildEngine(cfg *config.Config) (engine.Engine, error) {
	switch cfg.Engine.Provider {
	case "google":
		return googleengine.New(context.Background())
	case "openai":
		return openaiengine.New(cfg.Engine.OpenAIAPIKey, cfg.Engine.OpenAIModel)
	default:
		return mockengine.New(mockengine.Options{
			LoadDelay:   500 * time.Millisecond,
			ResultDelay: 200 * time.Millisecond,
		}), nil
	}
}

func printTranscript(sess *session.Session) {
	raw := sess.Transcript()
	fmt.Println("--- transcript ---")
	fmt.Println(raw)

	res := sess.Corrected(context.Background())
	if res.Corrected == raw && len(res.Changes) == 0 {
		return
	}

	fmt.Println("--- corrected ---")
	fmt.Println(res.Corrected)
	for _, ch := range res.Changes {
		fmt.Printf("  [%s] %s (offset %d)\n", ch.Category, ch.Description, ch.Offset)
	}
}
