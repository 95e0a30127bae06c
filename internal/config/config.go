// Package config provides environment-based configuration for the
// service, parsed into sections with validation.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the complete service configuration.
type Config struct {
	Service       ServiceConfig
	Audio         AudioConfig
	Engine        EngineConfig
	Correction    CorrectionConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service instance.
type ServiceConfig struct {
	Principal string `env:"SERVICE_PRINCIPAL" envDefault:"svc-live-dictation"`
	Env       string `env:"ENV" envDefault:"production"`
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
}

// AudioConfig contains capture and normalization parameters.
type AudioConfig struct {
	ChunkDuration time.Duration `env:"AUDIO_CHUNK_DURATION" envDefault:"4s"`
	TargetRateHz  int           `env:"AUDIO_TARGET_RATE_HZ" envDefault:"16000"`
	Realtime      bool          `env:"AUDIO_REALTIME_PLAYBACK" envDefault:"false"`
}

// EngineConfig selects and configures the inference engine.
type EngineConfig struct {
	Provider     string `env:"ENGINE_PROVIDER" envDefault:"mock"`
	Locale       string `env:"ENGINE_LOCALE" envDefault:"en-US"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_AUDIO_MODEL" envDefault:"whisper-1"`
}

// CorrectionConfig controls the correction pass.
type CorrectionConfig struct {
	Enabled     bool   `env:"CORRECTION_ENABLED" envDefault:"true"`
	LexiconPath string `env:"CORRECTION_LEXICON_PATH"`
}

// KafkaConfig contains event publishing configuration.
type KafkaConfig struct {
	Enabled        bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers        []string `env:"KAFKA_BROKERS" envSeparator:","`
	TopicSegment   string   `env:"KAFKA_TOPIC_SEGMENT" envDefault:"dictation.transcript.segment"`
	TopicCorrected string   `env:"KAFKA_TOPIC_CORRECTED" envDefault:"dictation.transcript.corrected"`
}

// ObservabilityConfig contains logging and metrics configuration.
type ObservabilityConfig struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Engine.Provider {
	case "mock", "google", "openai":
	default:
		return fmt.Errorf("unknown engine provider %q", c.Engine.Provider)
	}
	if c.Engine.Provider == "openai" && c.Engine.OpenAIAPIKey == "" {
		return fmt.Errorf("engine provider openai requires OPENAI_API_KEY")
	}
	if c.Audio.ChunkDuration <= 0 {
		return fmt.Errorf("audio chunk duration must be positive, got %v", c.Audio.ChunkDuration)
	}
	if c.Audio.TargetRateHz <= 0 {
		return fmt.Errorf("audio target rate must be positive, got %d", c.Audio.TargetRateHz)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled but no brokers configured")
	}
	return nil
}
