// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams 16-bit PCM through a pipe and reports player buffering as latency
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/Resonate-Protocol/resonate-latency/pkg/audio/pcm"
	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	ready      bool

	feed *timingFeed
	enc  *pcm.Encoder
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	enc, _ := pcm.NewEncoder(16) // oto only plays 16-bit
	return &Oto{feed: newTimingFeed(64), enc: enc}
}

// Open initializes the output device. oto always plays 16-bit.
func (o *Oto) Open(sampleRate, channels, bitDepth int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"function":    "Oto.Open",
		"sample_rate": sampleRate,
		"channels":    channels,
	})

	if bitDepth != 16 {
		log.WithField("bit_depth", bitDepth).Warn("oto only supports 16-bit output, converting")
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Warnf("Format change from %dHz/%dch not supported by oto, keeping existing context", o.sampleRate, o.channels)
		}
		return nil
	}

	ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	log.Info("Audio output initialized (oto)")
	return nil
}

// Write converts samples to 16-bit and blocks until the player has taken them
func (o *Oto) Write(samples []int32) error {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return ErrNotOpen
	}
	buf := o.enc.Encode(samples)
	writer := o.pipeWriter
	o.mu.Unlock()

	if _, err := writer.Write(buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	// Audio written now plays after everything the player still holds.
	o.feed.publish(framesToDuration(o.Buffered(), o.sampleRate))
	return nil
}

// Buffered returns frames held by the oto player
func (o *Oto) Buffered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil || o.channels == 0 {
		return 0
	}
	return o.player.BufferedSize() / (2 * o.channels)
}

// Timings returns the per-write latency observations
func (o *Oto) Timings() <-chan latency.CallbackTiming {
	return o.feed.ch
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			logrus.WithField("function", "Oto.Close").Warnf("oto suspend failed: %v", err)
		}
	}
	o.ready = false
	return nil
}
