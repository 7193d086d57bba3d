// ABOUTME: Audio output interface definition
// ABOUTME: Playback backends that also report per-callback latency timing
package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

var (
	ErrNotOpen             = errors.New("output not initialized")
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	ErrUnknownBackend      = errors.New("unknown output backend")
)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels, bitDepth int) error

	// Write queues audio samples, blocking while the device buffer is full
	Write(samples []int32) error

	// Buffered returns the number of frames queued but not yet handed to the device
	Buffered() int

	// Timings delivers one latency observation per device callback or write.
	// Observations are dropped when the consumer falls behind. The channel is
	// never closed.
	Timings() <-chan latency.CallbackTiming

	// Close releases output resources
	Close() error
}

// New creates a backend by name ("oto" or "malgo")
func New(backend string) (Output, error) {
	switch backend {
	case "", "oto":
		return NewOto(), nil
	case "malgo":
		return NewMalgo(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// timingFeed stamps observations against a monotonic stream clock
type timingFeed struct {
	ch    chan latency.CallbackTiming
	start time.Time
}

func newTimingFeed(size int) *timingFeed {
	return &timingFeed{
		ch:    make(chan latency.CallbackTiming, size),
		start: time.Now(),
	}
}

// publish never blocks the audio thread
func (f *timingFeed) publish(outputLatency time.Duration) {
	timing := latency.NewCallbackTiming(time.Since(f.start), outputLatency)
	select {
	case f.ch <- timing:
	default:
	}
}

func framesToDuration(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
