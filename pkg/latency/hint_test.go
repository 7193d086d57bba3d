package latency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOutputLatencyHint(t *testing.T) {
	hint := DefaultOutputLatencyHint(48000, 512)
	require.NotNil(t, hint)
	assert.Greater(t, hint.Seconds, 0.0)
	assert.Less(t, hint.Seconds, 1.0)
	assert.InDelta(t, 0.03, hint.Seconds, 1e-9, "short buffers clamp to the wired fallback")
	assert.Equal(t, TransportUnknown, hint.Transport)

	assert.Nil(t, DefaultOutputLatencyHint(0, 512))

	long := DefaultOutputLatencyHint(48000, 48000*10)
	require.NotNil(t, long)
	assert.Equal(t, 3.0, long.Seconds)
}

func TestResolverProbeErrors(t *testing.T) {
	noDevice := NewResolver(StaticProbe{Kind: PlatformMacOS, OutputErr: ErrNoDevice}, DefaultTuning())
	assert.Nil(t, noDevice.OutputHint(48000, 512))

	failing := NewResolver(StaticProbe{Kind: PlatformMacOS, OutputErr: errors.New("property read failed")}, DefaultTuning())
	hint := failing.OutputHint(48000, 4800)
	require.NotNil(t, hint)
	assert.InDelta(t, 0.1, hint.Seconds, 1e-9)
	assert.Equal(t, TransportUnknown, hint.Transport)
}

func TestResolverMacOSHint(t *testing.T) {
	frames := DeviceProperties{
		LatencyFrames:       24,
		SafetyOffsetFrames:  48,
		BufferFrames:        512,
		StreamLatencyFrames: 440,
	}

	tests := []struct {
		name      string
		code      string
		props     DeviceProperties
		requested uint32
		expected  float64
		transport TransportKind
	}{
		{"wired sums all terms", "bltn", frames, 512, 1024.0 / 48000, TransportWired},
		{"bluetooth floor", "blue", frames, 512, 0.12, TransportWireless},
		{"airplay floor", "airp", frames, 512, 1.8, TransportAirPlay},
		{"continuity floor", "ccwl", frames, 512, 0.12, TransportContinuityWireless},
		{"ceiling", "bltn", DeviceProperties{LatencyFrames: 200000}, 512, 3.0, TransportWired},
		{"requested buffer when device reports none", "usb ", DeviceProperties{}, 480, 0.01, TransportWired},
		{"zero total wired", "usb ", DeviceProperties{}, 0, 0, TransportWired},
		{"zero total wireless fallback", "blue", DeviceProperties{}, 0, 0.20, TransportWireless},
		{"zero total airplay floor", "airp", DeviceProperties{}, 0, 1.8, TransportAirPlay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := tt.props
			props.TransportCode = fourCC(tt.code)
			r := NewResolver(StaticProbe{Kind: PlatformMacOS, Output: props}, DefaultTuning())

			hint := r.OutputHint(48000, tt.requested)
			require.NotNil(t, hint)
			assert.InDelta(t, tt.expected, hint.Seconds, 1e-9)
			assert.Equal(t, tt.transport, hint.Transport)
		})
	}
}

func TestResolverUsesNominalRate(t *testing.T) {
	r := NewResolver(StaticProbe{
		Kind:   PlatformMacOS,
		Output: DeviceProperties{BufferFrames: 441, NominalSampleRate: 44100},
	}, DefaultTuning())

	hint := r.OutputHint(48000, 512)
	require.NotNil(t, hint)
	assert.InDelta(t, 0.01, hint.Seconds, 1e-9)
}

func TestResolverWindowsHint(t *testing.T) {
	r := NewResolver(StaticProbe{
		Kind:   PlatformWindows,
		Output: DeviceProperties{Name: "Headphones", BusEnumerator: "BTHENUM"},
	}, DefaultTuning())

	hint := r.OutputHint(48000, 9600)
	require.NotNil(t, hint)
	assert.InDelta(t, 0.2, hint.Seconds, 1e-9)
	assert.True(t, hint.IsProbablyWireless())
}

func TestResolverFallbackHintHonorsTransportFloor(t *testing.T) {
	tests := []struct {
		name      string
		probe     DeviceProbe
		want      float64
		transport TransportKind
	}{
		{
			name:      "windows bluetooth enumerator",
			probe:     StaticProbe{Kind: PlatformWindows, Output: DeviceProperties{BusEnumerator: "BTHENUM"}},
			want:      0.20,
			transport: TransportWireless,
		},
		{
			name:      "generic bluetooth name",
			probe:     GenericProbe{Name: "AirPods Pro"},
			want:      0.20,
			transport: TransportWireless,
		},
		{
			name:      "windows usb stays at buffer estimate",
			probe:     StaticProbe{Kind: PlatformWindows, Output: DeviceProperties{BusEnumerator: "USB"}},
			want:      0.03,
			transport: TransportWired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := NewResolver(tt.probe, DefaultTuning()).OutputHint(48000, 512)
			require.NotNil(t, hint)
			assert.Equal(t, tt.transport, hint.Transport)
			assert.InDelta(t, tt.want, hint.Seconds, 1e-9)
			if tt.transport.IsWireless() {
				assert.GreaterOrEqual(t, hint.Seconds, DefaultTuning().WirelessMinSecs)
			}
		})
	}
}

func TestHintIsProbablyWireless(t *testing.T) {
	assert.True(t, NewHint(0.2, TransportAirPlay).IsProbablyWireless())
	assert.False(t, NewHint(0.2, TransportWired).IsProbablyWireless())
	assert.False(t, NewHint(0.2, TransportUnknown).IsProbablyWireless())
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("darwin")
	require.NoError(t, err)
	assert.Equal(t, PlatformMacOS, p)

	p, err = ParsePlatform("Windows")
	require.NoError(t, err)
	assert.Equal(t, PlatformWindows, p)

	p, err = ParsePlatform("")
	require.NoError(t, err)
	assert.Equal(t, PlatformGeneric, p)

	_, err = ParsePlatform("beos")
	assert.Error(t, err)
}
