// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "live_dictation"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Capture metrics
	ChunksFlushed   prometheus.Counter
	ChunksSilent    prometheus.Counter
	ChunksDropped   *prometheus.CounterVec
	ChunkDuration   prometheus.Histogram
	SamplesCaptured prometheus.Counter

	// Model lifecycle metrics
	ModelLoadDuration prometheus.Histogram
	ModelLoadFailures prometheus.Counter

	// Transcription metrics
	TranscribeDispatched prometheus.Counter
	TranscribeCompleted  prometheus.Counter
	TranscribeFailed     prometheus.Counter
	TranscribeLatency    prometheus.Histogram
	QueueDepth           prometheus.Gauge
	TranscriptChars      prometheus.Counter

	// Correction metrics
	CorrectionPasses  prometheus.Counter
	CorrectionChanges *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of dictation sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active dictation sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of dictation sessions in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		ChunksFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_flushed_total",
			Help:      "Total number of audio chunks flushed for transcription",
		}),
		ChunksSilent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_silent_total",
			Help:      "Total number of chunks flagged invalid-silent",
		}),
		ChunksDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_dropped_total",
			Help:      "Total number of chunks dropped",
		}, []string{"reason"}),
		ChunkDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Duration of flushed audio chunks in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5},
		}),
		SamplesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_captured_total",
			Help:      "Total audio samples received from the capture device",
		}),

		ModelLoadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_load_duration_seconds",
			Help:      "Time from configure to ready",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		ModelLoadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_load_failures_total",
			Help:      "Total number of failed model loads",
		}),

		TranscribeDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_dispatched_total",
			Help:      "Total number of transcription requests dispatched",
		}),
		TranscribeCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_completed_total",
			Help:      "Total number of transcription requests completed",
		}),
		TranscribeFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_failed_total",
			Help:      "Total number of transcription requests that failed",
		}),
		TranscribeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_latency_seconds",
			Help:      "Time from dispatch to completion per request",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_queue_depth",
			Help:      "Number of chunks waiting for dispatch",
		}),
		TranscriptChars: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_chars_total",
			Help:      "Total characters appended to transcripts",
		}),

		CorrectionPasses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correction_passes_total",
			Help:      "Total number of correction passes run",
		}),
		CorrectionChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correction_changes_total",
			Help:      "Total correction changes recorded",
		}, []string{"category"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordSessionStart records a new session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session ending.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordChunkFlushed records a chunk handed to the bridge.
func (m *Metrics) RecordChunkFlushed(silent bool, durationSeconds float64) {
	m.ChunksFlushed.Inc()
	m.ChunkDuration.Observe(durationSeconds)
	if silent {
		m.ChunksSilent.Inc()
	}
}

// RecordChunkDropped records a chunk dropped before dispatch.
func (m *Metrics) RecordChunkDropped(reason string) {
	m.ChunksDropped.WithLabelValues(reason).Inc()
}

// RecordSamplesCaptured records raw samples received from the device.
func (m *Metrics) RecordSamplesCaptured(n int) {
	m.SamplesCaptured.Add(float64(n))
}

// RecordModelReady records a completed model load.
func (m *Metrics) RecordModelReady(loadSeconds float64) {
	m.ModelLoadDuration.Observe(loadSeconds)
}

// RecordModelLoadFailed records a failed model load.
func (m *Metrics) RecordModelLoadFailed() {
	m.ModelLoadFailures.Inc()
}

// RecordDispatch records a transcription request going out.
func (m *Metrics) RecordDispatch(queueDepth int) {
	m.TranscribeDispatched.Inc()
	m.QueueDepth.Set(float64(queueDepth))
}

// RecordCompletion records a finished transcription request.
func (m *Metrics) RecordCompletion(latencySeconds float64, textLen int) {
	m.TranscribeCompleted.Inc()
	m.TranscribeLatency.Observe(latencySeconds)
	m.TranscriptChars.Add(float64(textLen))
}

// RecordTranscribeFailure records a failed transcription request.
func (m *Metrics) RecordTranscribeFailure() {
	m.TranscribeFailed.Inc()
}

// RecordCorrection records one correction pass and its changes.
func (m *Metrics) RecordCorrection(byCategory map[string]int) {
	m.CorrectionPasses.Inc()
	for category, n := range byCategory {
		m.CorrectionChanges.WithLabelValues(category).Add(float64(n))
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
