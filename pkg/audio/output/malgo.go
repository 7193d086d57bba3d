// ABOUTME: Malgo-based audio output implementation with 24-bit support
// ABOUTME: Device callback drains a ring buffer and reports the device period latency (frames per period times periods)
package output

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-latency/pkg/audio/pcm"
	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

const (
	ringCapacity   = 250 * time.Millisecond
	defaultPeriods = 3
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	channels   int
	bitDepth   int
	periods    int
	ready      bool

	ring    *RingBuffer
	scratch []int32
	enc     *pcm.Encoder
	feed    *timingFeed
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	ctx, cancel := context.WithCancel(context.Background())
	return &Malgo{
		ctx:    ctx,
		cancel: cancel,
		feed:   newTimingFeed(256),
	}
}

// Open initializes the output device with the given format
func (m *Malgo) Open(sampleRate, channels, bitDepth int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"function":    "Malgo.Open",
		"sample_rate": sampleRate,
		"channels":    channels,
		"bit_depth":   bitDepth,
	})

	if m.device != nil && m.sampleRate == sampleRate && m.channels == channels && m.bitDepth == bitDepth {
		return nil
	}
	if m.device != nil {
		log.Info("Format change detected, reinitializing device")
		m.closeDevice()
	}

	format, err := malgoFormat(bitDepth)
	if err != nil {
		return err
	}
	enc, err := pcm.NewEncoder(bitDepth)
	if err != nil {
		return err
	}

	if m.malgoCtx == nil {
		mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = mctx
	}

	m.ring = NewRingBuffer(int(ringCapacity.Seconds()*float64(sampleRate)) * channels)
	m.sampleRate = sampleRate
	m.channels = channels
	m.bitDepth = bitDepth
	m.enc = enc
	m.periods = defaultPeriods

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = format
	cfg.Playback.Channels = uint32(channels)
	cfg.SampleRate = uint32(sampleRate)
	cfg.Periods = uint32(m.periods)
	cfg.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(m.malgoCtx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			m.dataCallback(out, frameCount)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.ready = true

	log.WithField("format", formatName(format)).Info("Audio output initialized (malgo)")
	return nil
}

// Write queues samples, waiting for ring space while the device drains it
func (m *Malgo) Write(samples []int32) error {
	m.mu.Lock()
	ready, ring := m.ready, m.ring
	m.mu.Unlock()
	if !ready {
		return ErrNotOpen
	}

	for written := 0; written < len(samples); {
		n := ring.Write(samples[written:])
		written += n
		if n == 0 {
			select {
			case <-m.ctx.Done():
				return ErrNotOpen
			case <-time.After(2 * time.Millisecond):
			}
		}
	}
	return nil
}

// dataCallback runs on the device thread
func (m *Malgo) dataCallback(out []byte, frameCount uint32) {
	total := int(frameCount) * m.channels
	if cap(m.scratch) < total {
		m.scratch = make([]int32, total)
	}
	samples := m.scratch[:total]
	m.ring.Read(samples)

	m.enc.EncodeInto(out, samples)

	// This buffer reaches the speaker after the device's other periods drain.
	m.feed.publish(framesToDuration(int(frameCount)*m.periods, m.sampleRate))
}

// Buffered returns frames waiting in the ring
func (m *Malgo) Buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ring == nil || m.channels == 0 {
		return 0
	}
	return m.ring.Available() / m.channels
}

// Timings returns the per-callback latency observations
func (m *Malgo) Timings() <-chan latency.CallbackTiming {
	return m.feed.ch
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			logrus.WithField("function", "Malgo.Close").Warnf("malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		logrus.WithField("function", "Malgo.closeDevice").Warnf("device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
	m.ready = false
}

func malgoFormat(bitDepth int) (malgo.FormatType, error) {
	switch bitDepth {
	case 16:
		return malgo.FormatS16, nil
	case 24:
		return malgo.FormatS24, nil
	case 32:
		return malgo.FormatS32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %d (supported: 16, 24, 32)", ErrUnsupportedBitDepth, bitDepth)
	}
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
