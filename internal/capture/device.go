// Package capture owns the audio input device and slices its stream
// into fixed-duration chunks for normalization and dispatch. The
// controller uses the streaming strategy: chunks flush continuously
// while recording rather than as one end-of-session blob, so sequence
// numbering and ordering apply per chunk.
package capture

import (
	"context"
	"errors"
)

// Frame is one batch of samples delivered by a device.
type Frame struct {
	Samples    []float32
	SampleRate int
}

// ErrPermissionDenied is returned by a device when audio input access
// is refused. Fatal to the start-recording action only; no retry loop.
var ErrPermissionDenied = errors.New("audio input permission denied")

// Device abstracts an audio input source (microphone, file playback).
// Start returns a live frame stream; the channel closes when the
// source ends. Stop releases the underlying resource and is idempotent.
type Device interface {
	Start(ctx context.Context) (<-chan Frame, error)
	Stop() error
}
