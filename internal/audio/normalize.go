// Package audio implements the numeric chunk transform: fixed-ratio
// resampling to the inference target rate plus peak normalization with
// amplitude diagnostics. Everything here is pure and safe to call from
// any goroutine.
package audio

import (
	"fmt"
	"math"
)

// DefaultTargetRate is the sample rate the inference engine expects.
const DefaultTargetRate = 16000

// DefaultPeakCeiling is the amplitude chunks are normalized up to.
const DefaultPeakCeiling = 0.95

// NormalizedChunk is a mono chunk resampled to the target rate and
// peak-normalized, together with the diagnostics collected on the way.
type NormalizedChunk struct {
	// Sequence is assigned by the capture controller at flush time.
	Sequence uint64

	Samples    []float32
	SampleRate int // target rate the samples now carry
	SourceRate int

	// Diagnostics from the amplitude pass over the resampled samples,
	// taken before gain is applied.
	Peak float64
	RMS  float64
	Gain float64

	// Silent is set when the peak was zero (or not finite); such
	// chunks pass through with gain 1.0.
	Silent bool
}

// Duration returns the chunk length in seconds at the target rate.
func (c NormalizedChunk) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// DecodeError reports malformed or unusable source audio. The wrapped
// cause, when present, is preserved for callers that unwrap.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio decode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("audio decode: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Normalize resamples mono float32 samples from sourceRate to targetRate
// and applies peak normalization up to DefaultPeakCeiling.
//
// Resampling strategy: causal linear interpolation at a fixed ratio.
// Output length is ceil(duration * targetRate), so total duration is
// preserved. Linear interpolation is deterministic and adequate for
// speech heading into an inference model; bit-parity with any particular
// decoder is explicitly not a goal.
//
// Gain policy: gain = ceiling/peak when peak > 0, with the peak
// measured on the resampled buffer — interpolation can attenuate or
// skip the source peak, and the ceiling must hold on the samples that
// actually reach the engine. A zero or non-finite peak leaves the
// samples untouched (gain 1.0) and flags the chunk Silent. By
// construction the normalized peak equals the ceiling exactly.
func Normalize(samples []float32, sourceRate, targetRate int) (NormalizedChunk, error) {
	if len(samples) == 0 {
		return NormalizedChunk{}, &DecodeError{Reason: "zero-length sample buffer"}
	}
	if sourceRate <= 0 {
		return NormalizedChunk{}, &DecodeError{Reason: fmt.Sprintf("invalid source rate %d", sourceRate)}
	}
	if targetRate <= 0 {
		targetRate = DefaultTargetRate
	}

	out := resample(samples, sourceRate, targetRate)
	peak, rms := analyze(out)

	gain := 1.0
	silent := peak == 0 || math.IsInf(peak, 0) || math.IsNaN(peak)
	if !silent {
		gain = DefaultPeakCeiling / peak
	}

	if gain != 1.0 {
		for i, s := range out {
			out[i] = float32(float64(s) * gain)
		}
	}

	return NormalizedChunk{
		Samples:    out,
		SampleRate: targetRate,
		SourceRate: sourceRate,
		Peak:       peak,
		RMS:        rms,
		Gain:       gain,
		Silent:     silent,
	}, nil
}

// analyze computes peak = max(|x|) and RMS in a single pass.
func analyze(samples []float32) (peak, rms float64) {
	var sumSq float64
	for _, s := range samples {
		v := math.Abs(float64(s))
		if v > peak {
			peak = v
		}
		sumSq += float64(s) * float64(s)
	}
	rms = math.Sqrt(sumSq / float64(len(samples)))
	return peak, rms
}

// resample maps the input onto ceil(duration*targetRate) output samples
// using linear interpolation between adjacent source samples.
func resample(samples []float32, sourceRate, targetRate int) []float32 {
	if sourceRate == targetRate {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	duration := float64(len(samples)) / float64(sourceRate)
	n := int(math.Ceil(duration * float64(targetRate)))
	if n < 1 {
		n = 1
	}

	out := make([]float32, n)
	ratio := float64(sourceRate) / float64(targetRate)
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		out[i] = float32(a + (b-a)*frac)
	}
	return out
}
