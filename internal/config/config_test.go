package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, Validate(cfg))
}

func TestLoadFromReaderOverlaysDefaults(t *testing.T) {
	const doc = `
output:
  backend: malgo
  sample_rate: 44100
device:
  platform: macos
  name: AirPods Pro
  transport_code: blue
correction:
  max_change_per_sec: 0.2
log:
  level: debug
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "malgo", cfg.Output.Backend)
	assert.Equal(t, 44100, cfg.Output.SampleRate)
	assert.Equal(t, 2, cfg.Output.Channels, "unset fields keep defaults")
	assert.Equal(t, 0.2, cfg.Correction.MaxChangePerSec)
	assert.Equal(t, 0.005, cfg.Correction.MinApplyDeltaSecs)
	assert.Equal(t, latency.DefaultTuning(), cfg.Tuning)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromReaderEmptyDocument(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("output:\n  backnd: oto\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode yaml")
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Output.Backend = "alsa"
	cfg.Output.SampleRate = 0
	cfg.Output.BitDepth = 12
	cfg.Device.Platform = "beos"
	cfg.Correction.MaxChangePerSec = -1
	cfg.Log.Level = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"output.backend", "output.sample_rate", "output.bit_depth", "device.platform", "correction", "log.level"} {
		assert.Contains(t, msg, want)
	}
	assert.ErrorIs(t, err, latency.ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latency.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  addr: \":9100\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFourCC(t *testing.T) {
	tests := []struct {
		code string
		want uint32
	}{
		{"blue", 0x626c7565},
		{"airp", 0x61697270},
		{"0x626c7565", 0x626c7565},
		{"", 0},
		{"toolong", 0},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, FourCC(tt.code))
		})
	}
}

func TestProbe(t *testing.T) {
	t.Run("generic name only", func(t *testing.T) {
		cfg := Default()
		cfg.Device.Name = "USB DAC"
		probe, err := cfg.Probe()
		require.NoError(t, err)
		assert.Equal(t, latency.GenericProbe{Name: "USB DAC"}, probe)
	})

	t.Run("macos with frames", func(t *testing.T) {
		cfg := Default()
		cfg.Device.Platform = "darwin"
		cfg.Device.Name = "Built-in Output"
		cfg.Device.TransportCode = "bltn"
		cfg.Device.LatencyFrames = 512
		cfg.Device.NominalSampleRate = 48000
		cfg.Device.InputName = "Built-in Microphone"

		probe, err := cfg.Probe()
		require.NoError(t, err)
		assert.Equal(t, latency.PlatformMacOS, probe.Platform())

		out, err := probe.OutputDevice()
		require.NoError(t, err)
		assert.Equal(t, uint32(512), out.LatencyFrames)
		assert.Equal(t, FourCC("bltn"), out.TransportCode)

		in, err := probe.InputDevice()
		require.NoError(t, err)
		assert.Equal(t, "Built-in Microphone", in.Name)
	})

	t.Run("bad platform", func(t *testing.T) {
		cfg := Default()
		cfg.Device.Platform = "plan9"
		_, err := cfg.Probe()
		assert.Error(t, err)
	})
}
