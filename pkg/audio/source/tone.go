// ABOUTME: Sine tone source
// ABOUTME: Generates a constant test tone when no file is given
package source

import (
	"fmt"
	"math"

	"github.com/Resonate-Protocol/resonate-latency/pkg/audio"
)

const toneAmplitude = 0.5

// Tone generates a sine wave on every channel
type Tone struct {
	frequency float64
	format    audio.Format
	frame     uint64
}

// NewTone creates a tone generator
func NewTone(frequency float64, sampleRate, channels int) *Tone {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 2
	}
	return &Tone{
		frequency: frequency,
		format:    audio.Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16},
	}
}

// Read fills samples with whole frames of the tone
func (s *Tone) Read(samples []int32) (int, error) {
	channels := s.format.Channels
	frames := len(samples) / channels
	rate := float64(s.format.SampleRate)

	for i := 0; i < frames; i++ {
		t := float64(s.frame+uint64(i)) / rate
		v := audio.SampleFromFloat(math.Sin(2*math.Pi*s.frequency*t) * toneAmplitude)
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}
	s.frame += uint64(frames)

	return frames * channels, nil
}

func (s *Tone) Format() audio.Format { return s.format }
func (s *Tone) Title() string        { return fmt.Sprintf("%.0f Hz tone", s.frequency) }
func (s *Tone) Close() error         { return nil }
