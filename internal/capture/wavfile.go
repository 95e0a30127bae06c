package capture

import (
	"context"
	"sync"
	"time"

	"live-dictation-service/internal/audio"
)

// wavFrameDuration is the batch size file playback delivers frames in.
const wavFrameDuration = 100 * time.Millisecond

// WAVFileDevice replays a WAV file as a capture device, standing in
// for a live microphone. Frames are delivered as fast as the consumer
// accepts them unless Realtime pacing is enabled.
type WAVFileDevice struct {
	Path     string
	Realtime bool

	mu      sync.Mutex
	stopCh  chan struct{}
	started bool
}

// NewWAVFileDevice creates a device replaying the given file.
func NewWAVFileDevice(path string) *WAVFileDevice {
	return &WAVFileDevice{Path: path}
}

// Start decodes the file and begins streaming frames. The returned
// channel closes after the last frame.
func (d *WAVFileDevice) Start(ctx context.Context) (<-chan Frame, error) {
	samples, rate, err := audio.DecodeWAVFile(d.Path)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.stopCh = make(chan struct{})
	d.started = true
	stopCh := d.stopCh
	d.mu.Unlock()

	frames := make(chan Frame, 8)
	frameSamples := int(wavFrameDuration.Seconds() * float64(rate))
	if frameSamples < 1 {
		frameSamples = 1
	}

	go func() {
		defer close(frames)
		for start := 0; start < len(samples); start += frameSamples {
			end := start + frameSamples
			if end > len(samples) {
				end = len(samples)
			}
			if d.Realtime {
				select {
				case <-time.After(wavFrameDuration):
				case <-ctx.Done():
					return
				case <-stopCh:
					return
				}
			}
			select {
			case frames <- Frame{Samples: samples[start:end], SampleRate: rate}:
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}()
	return frames, nil
}

// Stop ends playback. Idempotent.
func (d *WAVFileDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	select {
	case <-d.stopCh:
	default:
		close(d.stopCh)
	}
	return nil
}
