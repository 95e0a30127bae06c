package audio

import (
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DecodeWAVFile reads a WAV file and returns mono samples scaled to
// [-1, 1] plus the file's sample rate. Multi-channel input is downmixed
// by averaging.
func DecodeWAVFile(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &DecodeError{Reason: "open wav file", Err: err}
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, &DecodeError{Reason: fmt.Sprintf("not a valid wav file: %s", path)}
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, &DecodeError{Reason: "read pcm", Err: err}
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, &DecodeError{Reason: "empty wav file"}
	}

	rate := buf.Format.SampleRate
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	scale := float64(int(1) << (uint(d.BitDepth) - 1))
	if scale <= 0 {
		scale = 1 << 15
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = float32(sum / float64(channels))
	}
	return samples, rate, nil
}

// EncodeWAV renders a normalized chunk as a 16-bit mono WAV byte stream,
// the shape batch transcription APIs accept.
func EncodeWAV(chunk NormalizedChunk) ([]byte, error) {
	ws := &wavBuffer{}
	enc := wav.NewEncoder(ws, chunk.SampleRate, 16, 1, 1)

	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: chunk.SampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(chunk.Samples)),
	}
	for i, s := range chunk.Samples {
		buf.Data[i] = int(clampInt16(s))
	}

	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav finalize: %w", err)
	}
	return ws.data, nil
}

// Int16Bytes converts samples to little-endian 16-bit PCM, the LINEAR16
// encoding cloud speech APIs take.
func Int16Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := clampInt16(s)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func clampInt16(s float32) int16 {
	v := float64(s) * 32767
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// wavBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back
// to patch chunk sizes on Close.
type wavBuffer struct {
	data []byte
	pos  int
}

func (b *wavBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *wavBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(b.pos) + offset
	case io.SeekEnd:
		next = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("wav buffer: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("wav buffer: negative seek %d", next)
	}
	b.pos = int(next)
	return next, nil
}
