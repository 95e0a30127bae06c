package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"SERVICE_PRINCIPAL", "ENV", "HTTP_ADDR",
	"AUDIO_CHUNK_DURATION", "AUDIO_TARGET_RATE_HZ", "AUDIO_REALTIME_PLAYBACK",
	"ENGINE_PROVIDER", "ENGINE_LOCALE", "OPENAI_API_KEY", "OPENAI_AUDIO_MODEL",
	"CORRECTION_ENABLED", "CORRECTION_LEXICON_PATH",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_SEGMENT", "KAFKA_TOPIC_CORRECTED",
	"LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR",
}

func clearConfigEnv() {
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// Service defaults
	if cfg.Service.Principal != "svc-live-dictation" {
		t.Errorf("expected default principal 'svc-live-dictation', got %s", cfg.Service.Principal)
	}

	// Audio defaults
	if cfg.Audio.ChunkDuration != 4*time.Second {
		t.Errorf("expected default chunk duration 4s, got %v", cfg.Audio.ChunkDuration)
	}
	if cfg.Audio.TargetRateHz != 16000 {
		t.Errorf("expected default target rate 16000, got %d", cfg.Audio.TargetRateHz)
	}

	// Engine defaults
	if cfg.Engine.Provider != "mock" {
		t.Errorf("expected default engine provider 'mock', got %s", cfg.Engine.Provider)
	}
	if cfg.Engine.Locale != "en-US" {
		t.Errorf("expected default locale 'en-US', got %s", cfg.Engine.Locale)
	}

	// Correction defaults
	if !cfg.Correction.Enabled {
		t.Errorf("expected correction enabled by default, got %v", cfg.Correction.Enabled)
	}

	// Kafka defaults
	if cfg.Kafka.Enabled {
		t.Errorf("expected Kafka disabled by default, got %v", cfg.Kafka.Enabled)
	}
	if cfg.Kafka.TopicSegment != "dictation.transcript.segment" {
		t.Errorf("expected default segment topic, got %s", cfg.Kafka.TopicSegment)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.MetricsAddr != ":9090" {
		t.Errorf("expected default metrics addr ':9090', got %s", cfg.Observability.MetricsAddr)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearConfigEnv()
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("AUDIO_CHUNK_DURATION", "2s")
	os.Setenv("AUDIO_TARGET_RATE_HZ", "8000")
	os.Setenv("ENGINE_PROVIDER", "google")
	os.Setenv("ENGINE_LOCALE", "es-ES")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	os.Setenv("LOG_LEVEL", "debug")

	defer clearConfigEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Audio.ChunkDuration != 2*time.Second {
		t.Errorf("expected chunk duration 2s, got %v", cfg.Audio.ChunkDuration)
	}
	if cfg.Audio.TargetRateHz != 8000 {
		t.Errorf("expected target rate 8000, got %d", cfg.Audio.TargetRateHz)
	}
	if cfg.Engine.Provider != "google" {
		t.Errorf("expected engine provider 'google', got %s", cfg.Engine.Provider)
	}
	if cfg.Engine.Locale != "es-ES" {
		t.Errorf("expected locale 'es-ES', got %s", cfg.Engine.Locale)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker-1:9092" {
		t.Errorf("expected two brokers starting with 'broker-1:9092', got %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_UnknownProvider_Fails(t *testing.T) {
	clearConfigEnv()
	os.Setenv("ENGINE_PROVIDER", "whisper-cpp")
	defer clearConfigEnv()

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown engine provider, got nil")
	}
}

func TestLoad_OpenAIWithoutKey_Fails(t *testing.T) {
	clearConfigEnv()
	os.Setenv("ENGINE_PROVIDER", "openai")
	defer clearConfigEnv()

	if _, err := Load(); err == nil {
		t.Error("expected error for openai provider without API key, got nil")
	}
}

func TestLoad_KafkaEnabledWithoutBrokers_Fails(t *testing.T) {
	clearConfigEnv()
	os.Setenv("KAFKA_ENABLED", "true")
	defer clearConfigEnv()

	if _, err := Load(); err == nil {
		t.Error("expected error for enabled Kafka without brokers, got nil")
	}
}

func TestValidate_NonPositiveChunkDuration(t *testing.T) {
	clearConfigEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	cfg.Audio.ChunkDuration = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero chunk duration, got nil")
	}

	cfg.Audio.ChunkDuration = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative chunk duration, got nil")
	}
}
