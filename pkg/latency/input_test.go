package latency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateInputLatencyZeroRate(t *testing.T) {
	info := EstimateInputLatency(0, 512, "AirPods Pro")
	assert.Equal(t, NewInputInfo(0, 0, TransportUnknown), info)
}

func TestEstimateInputLatencyGeneric(t *testing.T) {
	wired := EstimateInputLatency(48000, 480, "USB Microphone")
	assert.Equal(t, 0.0, wired.DeviceSecs)
	assert.InDelta(t, 0.01, wired.BufferSecs, 1e-9)
	assert.InDelta(t, 0.01, wired.TotalSecs, 1e-9)
	assert.Equal(t, TransportUnknown, wired.Transport)

	bt := EstimateInputLatency(48000, 480, "AirPods Pro")
	assert.InDelta(t, 0.12, bt.DeviceSecs, 1e-9)
	assert.InDelta(t, 0.13, bt.TotalSecs, 1e-9)
	assert.Equal(t, TransportWireless, bt.Transport)
}

func TestResolverInputLatencyMacOS(t *testing.T) {
	r := NewResolver(StaticProbe{
		Kind: PlatformMacOS,
		Input: DeviceProperties{
			TransportCode:       fourCC("bltn"),
			LatencyFrames:       48,
			SafetyOffsetFrames:  48,
			StreamLatencyFrames: 96,
			BufferFrames:        256,
		},
	}, DefaultTuning())

	info := r.InputLatency(48000, 512)
	assert.InDelta(t, 0.004, info.DeviceSecs, 1e-9)
	assert.InDelta(t, 256.0/48000, info.BufferSecs, 1e-9)
	assert.InDelta(t, info.DeviceSecs+info.BufferSecs, info.TotalSecs, 1e-12)
	assert.Equal(t, TransportWired, info.Transport)
}

func TestResolverInputLatencyWindows(t *testing.T) {
	tests := []struct {
		name      string
		props     DeviceProperties
		device    float64
		transport TransportKind
	}{
		{"usb bus", DeviceProperties{Name: "Headset", BusEnumerator: "USB"}, 0.01, TransportWired},
		{"bluetooth bus", DeviceProperties{Name: "Headset", BusEnumerator: "BTHENUM"}, 0.12, TransportWireless},
		{"name heuristic", DeviceProperties{Name: "Jabra Evolve2"}, 0.12, TransportWireless},
		{"unknown", DeviceProperties{Name: "Microphone Array"}, 0.01, TransportUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(StaticProbe{Kind: PlatformWindows, Input: tt.props}, DefaultTuning())
			info := r.InputLatency(48000, 960)
			assert.InDelta(t, tt.device, info.DeviceSecs, 1e-9)
			assert.InDelta(t, 0.02, info.BufferSecs, 1e-9)
			assert.Equal(t, tt.transport, info.Transport)
		})
	}
}

func TestResolverInputLatencyProbeFailure(t *testing.T) {
	r := NewResolver(StaticProbe{Kind: PlatformMacOS, InputErr: errors.New("no permission")}, DefaultTuning())
	assert.Equal(t, InputInfoFromBuffer(48000, 480), r.InputLatency(48000, 480))
}

func TestInputInfoFromBuffer(t *testing.T) {
	assert.Equal(t, 0.0, InputInfoFromBuffer(0, 512).TotalSecs)
	assert.InDelta(t, 0.5, InputInfoFromBuffer(1000, 500).TotalSecs, 1e-12)
}
