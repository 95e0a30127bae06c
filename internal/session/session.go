// Package session ties capture, transcription and correction together
// for one dictation session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"live-dictation-service/internal/audio"
	"live-dictation-service/internal/bridge"
	"live-dictation-service/internal/capture"
	"live-dictation-service/internal/correct"
	"live-dictation-service/internal/engine"
	"live-dictation-service/internal/events"
	"live-dictation-service/internal/models"
	"live-dictation-service/internal/observability/logging"
	"live-dictation-service/internal/observability/metrics"
	"live-dictation-service/internal/schema"
)

const publishTimeout = 5 * time.Second

// Options configures a Session.
type Options struct {
	Engine    engine.Engine
	Device    capture.Device
	Locale    string
	Capture   capture.Config
	Corrector *correct.Engine   // nil disables the correction pass
	Publisher *events.Publisher // nil disables event publishing
}

// Status is a point-in-time snapshot of a session, suitable for a UI
// or status endpoint.
type Status struct {
	SessionID     string `json:"sessionId"`
	CaptureState  string `json:"captureState"`
	ModelState    string `json:"modelState"`
	LoadProgress  int    `json:"loadProgress"`
	Transcribing  bool   `json:"transcribing"`
	Transcript    string `json:"transcript"`
	FailureReason string `json:"failureReason,omitempty"`
}

// Session owns one dictation session: it streams device audio through
// the capture controller into the transcription bridge and exposes the
// accumulated transcript plus a final correction pass.
type Session struct {
	ID string

	logger     zerolog.Logger
	bridge     *bridge.Bridge
	controller *capture.Controller
	corrector  *correct.Engine
	publisher  *events.Publisher
	validator  *schema.Validator
	metrics    *metrics.Metrics

	mu        sync.Mutex
	startedAt time.Time
	started   bool
	closed    bool
}

// New assembles a session from its parts. The engine is not loaded and
// the device is not opened until Start.
func New(opts Options) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		corrector: opts.Corrector,
		publisher: opts.Publisher,
		validator: schema.New(),
		metrics:   metrics.DefaultMetrics,
	}
	s.logger = logging.WithSession(s.ID)

	s.bridge = bridge.NewBridge(opts.Engine, opts.Locale)
	s.bridge.SetAppendObserver(s.onAppend)
	s.controller = capture.NewController(opts.Device, opts.Capture, s.onChunk)

	s.logger.Info().
		Str("locale", opts.Locale).
		Dur("chunkDuration", opts.Capture.ChunkDuration).
		Msg("Session created")

	return s
}

// Start begins recording. The first call also starts the engine load;
// later calls reuse the loaded engine and reset transcript state so the
// session starts clean.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return bridge.ErrBridgeClosed
	}
	first := !s.started
	s.started = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	if first {
		if err := s.bridge.Start(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Engine load failed to start")
			return err
		}
	} else {
		s.bridge.Reset()
	}

	if err := s.controller.Start(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Capture start failed")
		return err
	}

	s.metrics.RecordSessionStart()
	s.logger.Info().Msg("Session started")
	return nil
}

// Stop ends recording. A partial chunk still in the capture buffer is
// flushed and submitted before the device is released; transcription of
// queued and in-flight chunks continues in the background.
func (s *Session) Stop() error {
	if err := s.controller.Stop(); err != nil {
		return err
	}
	s.logger.Info().Msg("Session stopped recording")
	return nil
}

// Wait blocks until the capture loop has exited (device stream ended or
// Stop was called).
func (s *Session) Wait(ctx context.Context) error {
	return s.controller.Wait(ctx)
}

// Drain blocks until every submitted chunk has a result or failure.
func (s *Session) Drain(ctx context.Context) error {
	return s.bridge.Drain(ctx)
}

// Transcript returns the raw transcript accumulated so far.
func (s *Session) Transcript() string {
	return s.bridge.Transcript()
}

// Status reports a snapshot of the session state.
func (s *Session) Status() Status {
	return Status{
		SessionID:     s.ID,
		CaptureState:  s.controller.State().String(),
		ModelState:    s.bridge.State().String(),
		LoadProgress:  s.bridge.Progress(),
		Transcribing:  s.bridge.Busy(),
		Transcript:    s.bridge.Transcript(),
		FailureReason: s.bridge.FailureReason(),
	}
}

// Corrected runs the correction pass over the current transcript and
// publishes the corrected event. With no corrector configured it
// returns the raw transcript unchanged.
func (s *Session) Corrected(ctx context.Context) correct.Result {
	raw := s.bridge.Transcript()
	if s.corrector == nil {
		return correct.Result{Original: raw, Corrected: raw, Changes: []correct.Change{}}
	}

	res := s.corrector.Apply(raw)

	byCategory := make(map[string]int)
	for _, ch := range res.Changes {
		byCategory[string(ch.Category)]++
	}
	s.metrics.RecordCorrection(byCategory)

	s.logger.Info().
		Int("changes", len(res.Changes)).
		Msg("Correction pass completed")

	s.publishCorrected(ctx, res, byCategory)
	return res
}

func (s *Session) onChunk(chunk audio.NormalizedChunk) {
	if err := s.bridge.Submit(chunk); err != nil {
		s.logger.Warn().
			Err(err).
			Uint64("sequence", chunk.Sequence).
			Msg("Chunk dropped, bridge closed")
	}
}

// onAppend runs on the bridge's event goroutine whenever a result is
// appended to the transcript.
func (s *Session) onAppend(sequence uint64, text string) {
	if s.publisher == nil {
		return
	}

	event := models.TranscriptSegment{
		EventType: "transcript.segment",
		SessionID: s.ID,
		Timestamp: time.Now().UnixMilli(),
		Sequence:  sequence,
		Text:      text,
	}
	if err := s.validator.Validate(event); err != nil {
		s.logger.Error().Err(err).Msg("Segment event failed validation")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishSegment(ctx, s.ID, event); err != nil {
		s.logger.Error().Err(err).Uint64("sequence", sequence).Msg("Segment publish failed")
	}
}

func (s *Session) publishCorrected(ctx context.Context, res correct.Result, byCategory map[string]int) {
	if s.publisher == nil {
		return
	}

	event := models.TranscriptCorrected{
		EventType:   "transcript.corrected",
		SessionID:   s.ID,
		Timestamp:   time.Now().UnixMilli(),
		Original:    res.Original,
		Corrected:   res.Corrected,
		ChangeCount: len(res.Changes),
		Changes:     byCategory,
	}
	if err := s.validator.Validate(event); err != nil {
		s.logger.Error().Err(err).Msg("Corrected event failed validation")
		return
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.PublishCorrected(pctx, s.ID, event); err != nil {
		s.logger.Error().Err(err).Msg("Corrected publish failed")
	}
}

// Close tears the session down: recording stops, the engine is released
// and further calls fail. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	startedAt := s.startedAt
	s.mu.Unlock()

	_ = s.controller.Stop()
	err := s.bridge.Close()

	if started {
		s.metrics.RecordSessionEnd(time.Since(startedAt).Seconds())
	}
	s.logger.Info().Msg("Session closed")
	return err
}
