// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"live-dictation-service/internal/observability/metrics"
)

// Publisher publishes transcript events to separate Kafka topics.
type Publisher struct {
	writerSegment   *kafka.Writer
	writerCorrected *kafka.Writer
	principal       string
	topicSegment    string
	topicCorrected  string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicSegment   string
	TopicCorrected string
	Principal      string
	Enabled        bool
}

// New creates a Kafka publisher with separate topics for transcript
// segments and corrected transcripts. When disabled it runs in
// log-only mode.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicSegment:   cfg.TopicSegment,
			topicCorrected: cfg.TopicCorrected,
			enabled:        false,
			metrics:        m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerSegment := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicSegment,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerCorrected := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicCorrected,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicSegment", cfg.TopicSegment).
		Str("topicCorrected", cfg.TopicCorrected).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerSegment:   writerSegment,
		writerCorrected: writerCorrected,
		principal:       cfg.Principal,
		topicSegment:    cfg.TopicSegment,
		topicCorrected:  cfg.TopicCorrected,
		enabled:         true,
		metrics:         m,
	}
}

// PublishSegment publishes a transcript segment event keyed by session.
func (p *Publisher) PublishSegment(ctx context.Context, sessionID string, event any) error {
	return p.publish(ctx, p.writerSegment, p.topicSegment, "transcript.segment", sessionID, event)
}

// PublishCorrected publishes a corrected transcript event keyed by session.
func (p *Publisher) PublishCorrected(ctx context.Context, sessionID string, event any) error {
	return p.publish(ctx, p.writerCorrected, p.topicCorrected, "transcript.corrected", sessionID, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerSegment != nil {
		if e := p.writerSegment.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing segment writer")
			err = e
		}
	}
	if p.writerCorrected != nil {
		if e := p.writerCorrected.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing corrected writer")
			err = e
		}
	}
	return err
}
