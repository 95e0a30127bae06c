// Package engine defines the boundary to the speech inference engine:
// a request type, a typed event union, and the Engine interface every
// provider implements. The bridge drives an Engine and demultiplexes
// its event channel; providers live in subpackages.
package engine

import (
	"context"

	"live-dictation-service/internal/audio"
)

// Request asks the engine to transcribe one normalized chunk.
type Request struct {
	Sequence uint64
	Chunk    audio.NormalizedChunk
	Locale   string
}

// Op identifies which engine operation an event belongs to.
type Op string

const (
	OpConfigure  Op = "configure"
	OpTranscribe Op = "transcribe"
)

// Event is the discriminated union of messages an engine emits. The
// concrete types below are the only implementations.
type Event interface {
	event()
}

// Progress reports model download/load progress while configuring.
type Progress struct {
	Percent int // 0-100; receivers clamp non-monotonic reports
}

// Ready signals the model is loaded and transcription may begin.
type Ready struct{}

// Segment is one timestamped piece of a transcription result.
type Segment struct {
	Text    string
	StartMs int64
	EndMs   int64
}

// Result carries the transcription for one request. Engines emit
// exactly one Result or Failure per Transcribe call. Either Text is
// set, or Segments is non-empty and receivers join the segment texts.
type Result struct {
	Sequence uint64
	Text     string
	Segments []Segment
}

// Failure reports an error for an operation. A configure failure is
// fatal to the engine lifecycle; a transcribe failure concerns only the
// identified request.
type Failure struct {
	Op       Op
	Sequence uint64 // meaningful for OpTranscribe
	Reason   string
}

func (Progress) event() {}
func (Ready) event()    {}
func (Result) event()   {}
func (Failure) event()  {}

// JoinedText extracts the transcript text from a result, joining
// segment texts with single spaces when the segment shape was used.
func (r Result) JoinedText() string {
	if len(r.Segments) == 0 {
		return r.Text
	}
	out := ""
	for _, s := range r.Segments {
		if s.Text == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += s.Text
	}
	return out
}

// Engine is an explicitly owned inference resource. Implementations
// deliver all outcomes on the Events channel; Load and Transcribe only
// fail synchronously when the engine cannot accept the operation at
// all (for example after Close).
//
// Contract: Load emits zero or more Progress events followed by Ready
// or a configure Failure. Transcribe emits exactly one Result or
// transcribe Failure per accepted request, in the order requests were
// submitted. Close is idempotent and closes the Events channel.
type Engine interface {
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, req Request) error
	Events() <-chan Event
	Close() error
}
