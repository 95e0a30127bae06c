// Package mock provides a scripted inference engine for tests and for
// running the service without cloud credentials. It simulates model
// loading with progress events and returns canned transcripts that
// exercise the correction pass.
package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"live-dictation-service/internal/engine"
)

// DefaultTexts are the canned transcripts, cycled per request. They
// deliberately contain fillers and artifacts for the correction pass.
var DefaultTexts = []string{
	"um so basically the demo works",
	"and then we review the the results",
	"i think this gonna be fine you know",
	"finally we ship it",
}

// Options configures the scripted behavior.
type Options struct {
	LoadDelay   time.Duration // total simulated model load time
	ResultDelay time.Duration // per-request inference time

	// LoadFailure, when set, makes configuration fail with this reason.
	LoadFailure string

	// FailSequences maps request sequence numbers to failure reasons.
	FailSequences map[uint64]string

	// Texts overrides DefaultTexts.
	Texts []string

	// SegmentsEvery delivers every Nth result in the segment-array
	// shape instead of the single-text shape. Zero disables.
	SegmentsEvery int
}

// ErrClosed is returned when an operation reaches a closed engine.
var ErrClosed = errors.New("mock engine is closed")

// Engine implements engine.Engine with scripted responses.
type Engine struct {
	opts   Options
	events chan engine.Event

	mu     sync.Mutex
	closed bool
	served int
}

// New creates a scripted engine.
func New(opts Options) *Engine {
	if len(opts.Texts) == 0 {
		opts.Texts = DefaultTexts
	}
	return &Engine{
		opts:   opts,
		events: make(chan engine.Event, 128),
	}
}

// Load simulates model download and initialization.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	go func() {
		step := e.opts.LoadDelay / 4
		for _, pct := range []int{25, 50, 75, 100} {
			if !sleepOrDone(ctx, step) {
				return
			}
			e.emit(engine.Progress{Percent: pct})
		}
		if e.opts.LoadFailure != "" {
			e.emit(engine.Failure{Op: engine.OpConfigure, Reason: e.opts.LoadFailure})
			return
		}
		e.emit(engine.Ready{})
	}()
	return nil
}

// Transcribe answers with the next scripted text, or the configured
// failure for this sequence number.
func (e *Engine) Transcribe(ctx context.Context, req engine.Request) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	n := e.served
	e.served++
	e.mu.Unlock()

	go func() {
		if !sleepOrDone(ctx, e.opts.ResultDelay) {
			return
		}
		if reason, ok := e.opts.FailSequences[req.Sequence]; ok {
			e.emit(engine.Failure{Op: engine.OpTranscribe, Sequence: req.Sequence, Reason: reason})
			return
		}

		text := e.opts.Texts[n%len(e.opts.Texts)]
		res := engine.Result{Sequence: req.Sequence}
		if e.opts.SegmentsEvery > 0 && (n+1)%e.opts.SegmentsEvery == 0 {
			half := len(text) / 2
			cut := half
			for cut < len(text) && text[cut] != ' ' {
				cut++
			}
			if cut >= len(text) {
				res.Text = text
			} else {
				res.Segments = []engine.Segment{
					{Text: text[:cut], StartMs: 0, EndMs: 2000},
					{Text: text[cut+1:], StartMs: 2000, EndMs: 4000},
				}
			}
		} else {
			res.Text = text
		}
		e.emit(res)
	}()
	return nil
}

// Events exposes the scripted event stream.
func (e *Engine) Events() <-chan engine.Event {
	return e.events
}

// Close is idempotent; it stops event delivery and closes the channel.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.events)
	return nil
}

// emit drops events once the engine is closed or the buffer is full;
// a stalled consumer must not wedge the scripted goroutines.
func (e *Engine) emit(ev engine.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
