package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"live-dictation-service/internal/audio"
	"live-dictation-service/internal/engine"
	"live-dictation-service/internal/observability/logging"
	"live-dictation-service/internal/observability/metrics"

	"github.com/rs/zerolog"
)

// ErrBridgeClosed is returned when submitting to a released bridge.
var ErrBridgeClosed = errors.New("bridge is closed")

// AppendObserver is notified after a result text is appended to the
// transcript, in append order.
type AppendObserver func(sequence uint64, text string)

type inflightRequest struct {
	req     engine.Request
	sentAt  time.Time
	discard bool
}

// Bridge owns the engine boundary for one transcription pipeline. It
// queues normalized chunks in FIFO order, keeps at most one transcribe
// request outstanding, and appends results to the running transcript
// in submission order. FIFO dispatch makes merge order trivially
// correct regardless of how fast individual inferences complete.
type Bridge struct {
	eng    engine.Engine
	locale string
	lc     *Lifecycle
	log    zerolog.Logger
	m      *metrics.Metrics

	mu          sync.Mutex
	pending     []engine.Request
	inflight    *inflightRequest
	transcript  strings.Builder
	onAppend    AppendObserver
	closed      bool
	started     bool
	loadStarted time.Time
	ctx         context.Context

	done chan struct{}
}

// NewBridge creates a bridge around an explicitly owned engine. The
// bridge takes over the engine's lifecycle; Close releases it.
func NewBridge(eng engine.Engine, locale string) *Bridge {
	return &Bridge{
		eng:    eng,
		locale: locale,
		lc:     NewLifecycle(),
		log:    logging.WithComponent("bridge"),
		m:      metrics.DefaultMetrics,
		done:   make(chan struct{}),
	}
}

// SetAppendObserver registers the transcript append callback. Must be
// set before Start.
func (b *Bridge) SetAppendObserver(fn AppendObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onAppend = fn
}

// Start sends configure to the engine and begins demultiplexing its
// events. Calling Start again after a load failure retries the load;
// in any other state it returns the lifecycle transition error.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBridgeClosed
	}
	if err := b.lc.BeginLoad(); err != nil {
		b.mu.Unlock()
		return err
	}
	b.loadStarted = time.Now()
	b.ctx = ctx
	first := !b.started
	b.started = true
	b.mu.Unlock()

	if first {
		go b.demux()
	}

	if err := b.eng.Load(ctx); err != nil {
		b.lc.MarkFailed(err.Error())
		b.m.RecordModelLoadFailed()
		return fmt.Errorf("engine load: %w", err)
	}
	return nil
}

// Submit queues one normalized chunk. Chunks submitted while the model
// is still loading are held, never dropped; dispatch begins once ready
// is observed.
func (b *Bridge) Submit(chunk audio.NormalizedChunk) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBridgeClosed
	}
	b.pending = append(b.pending, engine.Request{
		Sequence: chunk.Sequence,
		Chunk:    chunk,
		Locale:   b.locale,
	})
	b.dispatchLocked()
	return nil
}

// Transcript returns the accumulated transcript text.
func (b *Bridge) Transcript() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transcript.String()
}

// Busy reports whether any request is dispatched or waiting. This is
// the caller-visible "transcribing" indicator: it stays true until a
// complete or error arrives for every dispatched request.
func (b *Bridge) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inflight != nil || len(b.pending) > 0
}

// State returns the model lifecycle state.
func (b *Bridge) State() State { return b.lc.State() }

// Progress returns the model loading percentage.
func (b *Bridge) Progress() int { return b.lc.Progress() }

// FailureReason returns the load failure reason, empty unless FAILED.
func (b *Bridge) FailureReason() string { return b.lc.Reason() }

// Reset clears the transcript and the pending queue for a new session.
// A request already dispatched is left to finish but its result is
// discarded; the resources spent on it belong to the previous session.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = nil
	b.transcript.Reset()
	if b.inflight != nil {
		b.inflight.discard = true
	}
}

// Drain blocks until no request is dispatched or pending, the model
// has failed (nothing further will complete), or the context ends.
func (b *Bridge) Drain(ctx context.Context) error {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		if !b.Busy() {
			return nil
		}
		if b.lc.State() == StateFailed {
			return fmt.Errorf("model load failed: %s", b.lc.Reason())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// Close releases the bridge and the engine beneath it. Idempotent.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	started := b.started
	b.mu.Unlock()

	err := b.eng.Close()
	if started {
		<-b.done
	}
	return err
}

// demux consumes the engine event channel until it closes.
func (b *Bridge) demux() {
	defer close(b.done)
	for ev := range b.eng.Events() {
		switch v := ev.(type) {
		case engine.Progress:
			b.lc.SetProgress(v.Percent)
		case engine.Ready:
			b.onReady()
		case engine.Result:
			b.onResult(v)
		case engine.Failure:
			b.onFailure(v)
		default:
			b.log.Warn().Type("event", ev).Msg("Unknown engine event")
		}
	}
}

func (b *Bridge) onReady() {
	b.mu.Lock()
	loadSeconds := time.Since(b.loadStarted).Seconds()
	b.mu.Unlock()

	if err := b.lc.MarkReady(); err != nil {
		b.log.Warn().Err(err).Msg("Ready ignored")
		return
	}
	b.m.RecordModelReady(loadSeconds)
	b.log.Info().Float64("loadSeconds", loadSeconds).Msg("Model ready")

	b.mu.Lock()
	b.dispatchLocked()
	b.mu.Unlock()
}

func (b *Bridge) onResult(res engine.Result) {
	b.mu.Lock()
	cur := b.inflight
	if cur == nil || cur.req.Sequence != res.Sequence {
		b.mu.Unlock()
		b.log.Warn().Uint64("sequence", res.Sequence).Msg("Result for unknown request ignored")
		return
	}

	text := res.JoinedText()
	latency := time.Since(cur.sentAt).Seconds()
	discarded := cur.discard
	appended := !discarded && text != ""
	if appended {
		if b.transcript.Len() > 0 {
			b.transcript.WriteByte(' ')
		}
		b.transcript.WriteString(text)
	}
	cb := b.onAppend
	b.inflight = nil
	b.dispatchLocked()
	b.mu.Unlock()

	b.m.RecordCompletion(latency, len(text))
	b.log.Debug().
		Uint64("sequence", res.Sequence).
		Int("chars", len(text)).
		Bool("discarded", discarded).
		Msg("Transcription complete")

	if cb != nil && appended {
		cb(res.Sequence, text)
	}
}

func (b *Bridge) onFailure(f engine.Failure) {
	if f.Op == engine.OpConfigure {
		if err := b.lc.MarkFailed(f.Reason); err != nil {
			b.log.Warn().Err(err).Str("reason", f.Reason).Msg("Configure failure ignored")
			return
		}
		b.m.RecordModelLoadFailed()
		b.log.Error().Str("reason", f.Reason).Msg("Model load failed")
		return
	}

	// One bad chunk must not abort the session: log, skip, move on.
	b.mu.Lock()
	if b.inflight != nil && b.inflight.req.Sequence == f.Sequence {
		b.inflight = nil
	}
	b.dispatchLocked()
	b.mu.Unlock()

	b.m.RecordTranscribeFailure()
	b.log.Warn().
		Uint64("sequence", f.Sequence).
		Str("reason", f.Reason).
		Msg("Transcription failed, continuing with next chunk")
}

// dispatchLocked sends the next queued request when the model is ready
// and nothing is outstanding. Callers hold b.mu.
func (b *Bridge) dispatchLocked() {
	if b.closed || b.inflight != nil || len(b.pending) == 0 || !b.lc.IsReady() {
		return
	}

	req := b.pending[0]
	b.pending = b.pending[1:]
	b.inflight = &inflightRequest{req: req, sentAt: time.Now()}
	b.m.RecordDispatch(len(b.pending))

	ctx := b.ctx
	go func() {
		if err := b.eng.Transcribe(ctx, req); err != nil {
			b.onFailure(engine.Failure{
				Op:       engine.OpTranscribe,
				Sequence: req.Sequence,
				Reason:   err.Error(),
			})
		}
	}()
}
