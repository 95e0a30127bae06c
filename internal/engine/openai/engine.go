// Package openai implements the inference engine boundary on the
// OpenAI audio transcription API (Whisper). Each chunk is WAV encoded
// in memory and submitted as one transcription request.
package openai

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	goopenai "github.com/sashabaranov/go-openai"

	"live-dictation-service/internal/audio"
	"live-dictation-service/internal/engine"
)

// ErrClosed is returned when an operation reaches a closed engine.
var ErrClosed = errors.New("openai engine is closed")

// ErrMissingAPIKey is returned by New when no API key is provided.
var ErrMissingAPIKey = errors.New("openai engine requires an api key")

// Engine implements engine.Engine using the OpenAI transcription API.
type Engine struct {
	client *goopenai.Client
	model  string
	events chan engine.Event

	mu     sync.Mutex
	closed bool
}

// New creates an OpenAI engine.
func New(apiKey, model string) (*Engine, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Engine{
		client: goopenai.NewClient(apiKey),
		model:  model,
		events: make(chan engine.Event, 64),
	}, nil
}

// Load reports readiness; the hosted model needs no local download.
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

// Transcribe encodes one chunk as WAV and submits it.
func (e *Engine) Transcribe(ctx context.Context, req engine.Request) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	go func() {
		wavData, err := audio.EncodeWAV(req.Chunk)
		if err != nil {
			e.emit(engine.Failure{Op: engine.OpTranscribe, Sequence: req.Sequence, Reason: err.Error()})
			return
		}

		resp, err := e.client.CreateTranscription(ctx, goopenai.AudioRequest{
			Model:    e.model,
			Reader:   bytes.NewReader(wavData),
			FilePath: "chunk.wav",
			Language: languageOf(req.Locale),
		})
		if err != nil {
			e.emit(engine.Failure{Op: engine.OpTranscribe, Sequence: req.Sequence, Reason: err.Error()})
			return
		}
		e.emit(engine.Result{Sequence: req.Sequence, Text: resp.Text})
	}()
	return nil
}

// Events exposes the engine event stream.
func (e *Engine) Events() <-chan engine.Event {
	return e.events
}

// Close is idempotent.
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

// languageOf reduces a BCP-47 locale such as en-US to the bare ISO-639
// language code the transcription API expects.
func languageOf(locale string) string {
	if i := strings.IndexByte(locale, '-'); i > 0 {
		return strings.ToLower(locale[:i])
	}
	return strings.ToLower(locale)
}
