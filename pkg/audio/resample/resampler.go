// ABOUTME: Streaming linear resampler for interleaved int32 PCM
// ABOUTME: Carries the last frame across chunks so boundaries interpolate cleanly
package resample

import "math"

// Resampler converts interleaved PCM between sample rates with linear interpolation.
// It is not safe for concurrent use.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64 // input frames advanced per output frame

	// pos is the input position of the next output frame, relative to the
	// current chunk. -1 addresses the frame carried over from the last chunk.
	pos     float64
	prev    []int32
	hasPrev bool

	out []int32
}

// New creates a resampler. channels must be at least 1.
func New(inputRate, outputRate, channels int) *Resampler {
	if channels < 1 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		prev:       make([]int32, channels),
	}
}

// Passthrough reports whether the rates match and Process copies nothing
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Ratio returns outputRate / inputRate
func (r *Resampler) Ratio() float64 {
	return float64(r.outputRate) / float64(r.inputRate)
}

// Process resamples one chunk. The returned slice is reused by the next call.
func (r *Resampler) Process(input []int32) []int32 {
	if r.Passthrough() {
		return input
	}

	frames := len(input) / r.channels
	if frames == 0 {
		return r.out[:0]
	}

	r.out = r.out[:0]
	for r.pos < float64(frames-1) {
		base := math.Floor(r.pos)
		i := int(base)
		frac := r.pos - base

		for ch := 0; ch < r.channels; ch++ {
			a := r.sample(input, i, ch)
			b := input[(i+1)*r.channels+ch]
			r.out = append(r.out, int32(float64(a)+(float64(b)-float64(a))*frac))
		}
		r.pos += r.step
	}

	r.pos -= float64(frames)
	copy(r.prev, input[(frames-1)*r.channels:frames*r.channels])
	r.hasPrev = true

	return r.out
}

func (r *Resampler) sample(input []int32, frame, ch int) int32 {
	if frame < 0 {
		if r.hasPrev {
			return r.prev[ch]
		}
		return input[ch]
	}
	return input[frame*r.channels+ch]
}

// Reset forgets the carried frame and fractional position
func (r *Resampler) Reset() {
	r.pos = 0
	r.hasPrev = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// OutputFrames estimates how many frames Process yields for inputFrames
func (r *Resampler) OutputFrames(inputFrames int) int {
	return int(float64(inputFrames) / r.step)
}

// InputFrames estimates how many input frames produce outputFrames
func (r *Resampler) InputFrames(outputFrames int) int {
	return int(math.Ceil(float64(outputFrames) * r.step))
}
