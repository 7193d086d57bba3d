// ABOUTME: Source wrapper that converts to the playback device rate
// ABOUTME: Uses the streaming linear resampler and keeps leftover output between reads
package source

import (
	"github.com/Resonate-Protocol/resonate-latency/pkg/audio"
	"github.com/Resonate-Protocol/resonate-latency/pkg/audio/resample"
)

// Resampled presents a source at a different sample rate
type Resampled struct {
	src       Source
	resampler *resample.Resampler
	format    audio.Format
	in        []int32
	leftover  []int32
}

// NewResampled wraps src. When rates already match src is returned unchanged.
func NewResampled(src Source, targetRate int) Source {
	f := src.Format()
	if f.SampleRate == targetRate || targetRate <= 0 {
		return src
	}
	out := f
	out.SampleRate = targetRate
	return &Resampled{
		src:       src,
		resampler: resample.New(f.SampleRate, targetRate, f.Channels),
		format:    out,
	}
}

// Read fills samples at the target rate
func (r *Resampled) Read(samples []int32) (int, error) {
	n := copy(samples, r.leftover)
	r.leftover = r.leftover[n:]

	channels := r.format.Channels
	for n < len(samples) {
		frames := r.resampler.InputFrames((len(samples)-n)/channels) + 1
		if cap(r.in) < frames*channels {
			r.in = make([]int32, frames*channels)
		}
		read, err := r.src.Read(r.in[:frames*channels])
		if err != nil {
			return n, err
		}
		if read == 0 {
			break
		}

		out := r.resampler.Process(r.in[:read])
		copied := copy(samples[n:], out)
		n += copied
		r.leftover = append(r.leftover[:0], out[copied:]...)
	}
	return n, nil
}

func (r *Resampled) Format() audio.Format { return r.format }
func (r *Resampled) Title() string        { return r.src.Title() }
func (r *Resampled) Close() error         { return r.src.Close() }
