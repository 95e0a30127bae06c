package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"live-dictation-service/internal/audio"
	"live-dictation-service/internal/observability/logging"
	"live-dictation-service/internal/observability/metrics"

	"github.com/rs/zerolog"
)

// State represents the capture state machine.
type State int

const (
	// StateIdle - no recording in progress.
	StateIdle State = iota
	// StateRecording - device started, frames accumulating.
	StateRecording
	// StateStopping - stop requested, final partial flush in progress.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	case StateStopping:
		return "STOPPING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid controller operations.
var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// ChunkSink receives normalized chunks in sequence order.
type ChunkSink func(audio.NormalizedChunk)

// Config holds capture parameters.
type Config struct {
	// ChunkDuration is the flush threshold, measured in samples at the
	// source rate.
	ChunkDuration time.Duration

	// TargetRate is the rate chunks are resampled to before dispatch.
	TargetRate int
}

// DefaultConfig returns the standard capture parameters.
func DefaultConfig() Config {
	return Config{
		ChunkDuration: 4 * time.Second,
		TargetRate:    audio.DefaultTargetRate,
	}
}

// Controller owns one capture device and runs the
// idle → recording → stopping → idle state machine. Exactly one
// recording session may be active; the device handle has a single
// owner and no concurrent writers.
type Controller struct {
	dev  Device
	cfg  Config
	sink ChunkSink
	log  zerolog.Logger
	m    *metrics.Metrics

	mu       sync.Mutex
	state    State
	buf      []float32
	srcRate  int
	seq      uint64
	stopReq  chan struct{}
	loopDone chan struct{}
}

// NewController creates a controller over a device. Flushed chunks are
// normalized and handed to sink in sequence order.
func NewController(dev Device, cfg Config, sink ChunkSink) *Controller {
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = DefaultConfig().ChunkDuration
	}
	if cfg.TargetRate <= 0 {
		cfg.TargetRate = audio.DefaultTargetRate
	}
	return &Controller{
		dev:  dev,
		cfg:  cfg,
		sink: sink,
		log:  logging.WithComponent("capture"),
		m:    metrics.DefaultMetrics,
	}
}

// State returns the current capture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a recording session. Starting while a session is active
// returns ErrAlreadyRecording. Session state (buffer, sequence
// counter) is fully reset on each start.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}

	frames, err := c.dev.Start(ctx)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("device start: %w", err)
	}

	c.state = StateRecording
	c.buf = c.buf[:0]
	c.srcRate = 0
	c.seq = 0
	c.stopReq = make(chan struct{})
	c.loopDone = make(chan struct{})
	loopDone := c.loopDone
	stopReq := c.stopReq
	c.mu.Unlock()

	c.log.Info().Msg("Recording started")
	go c.loop(frames, stopReq, loopDone)
	return nil
}

// Stop ends the session: the remaining partial buffer is flushed as a
// final chunk, then the device is released. Safe to call when idle.
// Every caller returns only after the loop has exited, so a stop that
// races another stop still observes the final flush.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	loopDone := c.loopDone
	if c.state == StateStopping {
		c.mu.Unlock()
		<-loopDone
		return nil
	}
	c.state = StateStopping
	stopReq := c.stopReq
	c.mu.Unlock()

	close(stopReq)
	<-loopDone
	return nil
}

// Wait blocks until the capture loop exits (stop requested or the
// device stream ended) or the context is cancelled.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	loopDone := c.loopDone
	c.mu.Unlock()
	if loopDone == nil {
		return ErrNotRecording
	}
	select {
	case <-loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop consumes device frames until stop or end of stream. The device
// is released on every exit path.
func (c *Controller) loop(frames <-chan Frame, stopReq, loopDone chan struct{}) {
	defer func() {
		if err := c.dev.Stop(); err != nil {
			c.log.Error().Err(err).Msg("Device release failed")
		}
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		c.log.Info().Msg("Recording stopped")
		close(loopDone)
	}()

	for {
		select {
		case <-stopReq:
			c.flushPartial()
			return
		case f, ok := <-frames:
			if !ok {
				c.flushPartial()
				return
			}
			c.handleFrame(f)
		}
	}
}

func (c *Controller) handleFrame(f Frame) {
	if len(f.Samples) == 0 {
		return
	}

	c.mu.Lock()
	if c.srcRate == 0 {
		c.srcRate = f.SampleRate
	}
	if f.SampleRate != c.srcRate {
		c.mu.Unlock()
		c.log.Warn().
			Int("got", f.SampleRate).
			Int("want", c.srcRate).
			Msg("Frame with mismatched sample rate dropped")
		return
	}

	c.buf = append(c.buf, f.Samples...)
	chunkSamples := c.chunkSamplesLocked()
	var full [][]float32
	for chunkSamples > 0 && len(c.buf) >= chunkSamples {
		chunk := make([]float32, chunkSamples)
		copy(chunk, c.buf[:chunkSamples])
		c.buf = c.buf[:copy(c.buf, c.buf[chunkSamples:])]
		full = append(full, chunk)
	}
	c.mu.Unlock()

	c.m.RecordSamplesCaptured(len(f.Samples))
	for _, samples := range full {
		c.flush(samples)
	}
}

// flushPartial emits whatever is buffered, even below the chunk
// threshold, as the session's final chunk.
func (c *Controller) flushPartial() {
	c.mu.Lock()
	if len(c.buf) == 0 {
		c.mu.Unlock()
		return
	}
	samples := make([]float32, len(c.buf))
	copy(samples, c.buf)
	c.buf = c.buf[:0]
	c.mu.Unlock()

	c.flush(samples)
}

// flush normalizes one buffer and hands it to the sink with the next
// sequence number. A decode failure drops only this chunk.
func (c *Controller) flush(samples []float32) {
	c.mu.Lock()
	srcRate := c.srcRate
	c.mu.Unlock()

	chunk, err := audio.Normalize(samples, srcRate, c.cfg.TargetRate)
	if err != nil {
		c.m.RecordChunkDropped("decode")
		c.log.Warn().Err(err).Msg("Chunk dropped, session continues")
		return
	}

	c.mu.Lock()
	c.seq++
	chunk.Sequence = c.seq
	c.mu.Unlock()

	c.m.RecordChunkFlushed(chunk.Silent, chunk.Duration())
	if chunk.Silent {
		c.log.Debug().Uint64("sequence", chunk.Sequence).Msg("Chunk flagged invalid-silent")
	}
	c.sink(chunk)
}

// chunkSamplesLocked returns the flush threshold in samples at the
// source rate. Callers hold c.mu.
func (c *Controller) chunkSamplesLocked() int {
	if c.srcRate == 0 {
		return 0
	}
	return int(c.cfg.ChunkDuration.Seconds() * float64(c.srcRate))
}
