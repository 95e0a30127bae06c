// Package google implements the inference engine boundary on Google
// Cloud Speech-to-Text, one Recognize call per chunk.
package google

import (
	"context"
	"errors"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"live-dictation-service/internal/audio"
	"live-dictation-service/internal/engine"
)

// ErrClosed is returned when an operation reaches a closed engine.
var ErrClosed = errors.New("google engine is closed")

// Engine implements engine.Engine using Google Cloud Speech-to-Text.
type Engine struct {
	client *speech.Client
	events chan engine.Event

	mu     sync.Mutex
	closed bool
}

// New creates a Google engine. Requires GOOGLE_APPLICATION_CREDENTIALS
// to be set in the environment.
func New(ctx context.Context) (*Engine, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{
		client: c,
		events: make(chan engine.Event, 64),
	}, nil
}

// Load reports readiness. The client was dialed in New, so there is no
// model download phase to report progress for.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.emitLocked(engine.Progress{Percent: 100})
	e.emitLocked(engine.Ready{})
	return nil
}

// Transcribe submits one chunk as LINEAR16 mono audio.
func (e *Engine) Transcribe(ctx context.Context, req engine.Request) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	go func() {
		resp, err := e.client.Recognize(ctx, &speechpb.RecognizeRequest{
			Config: &speechpb.RecognitionConfig{
				Encoding:        speechpb.RecognitionConfig_LINEAR16,
				SampleRateHertz: int32(req.Chunk.SampleRate),
				LanguageCode:    req.Locale,
			},
			Audio: &speechpb.RecognitionAudio{
				AudioSource: &speechpb.RecognitionAudio_Content{
					Content: audio.Int16Bytes(req.Chunk.Samples),
				},
			},
		})
		if err != nil {
			e.emit(engine.Failure{Op: engine.OpTranscribe, Sequence: req.Sequence, Reason: err.Error()})
			return
		}

		segments := make([]engine.Segment, 0, len(resp.Results))
		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			segments = append(segments, engine.Segment{Text: r.Alternatives[0].Transcript})
		}
		e.emit(engine.Result{Sequence: req.Sequence, Segments: segments})
	}()
	return nil
}

// Events exposes the engine event stream.
func (e *Engine) Events() <-chan engine.Event {
	return e.events
}

// Close is idempotent; it releases the API client and closes Events.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.events)
	return e.client.Close()
}

func (e *Engine) emit(ev engine.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitLocked(ev)
}

func (e *Engine) emitLocked(ev engine.Event) {
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}
