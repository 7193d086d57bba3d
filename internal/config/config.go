// ABOUTME: Configuration schema for the latency tools
// ABOUTME: Output, device metadata, correction policy, tuning, calibration, metrics and logging
package config

import (
	"strconv"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Output      OutputConfig             `yaml:"output"`
	Device      DeviceConfig             `yaml:"device"`
	Correction  latency.CorrectionConfig `yaml:"correction"`
	Tuning      latency.Tuning           `yaml:"tuning"`
	Calibration CalibrationConfig        `yaml:"calibration"`
	Metrics     MetricsConfig            `yaml:"metrics"`
	Log         LogConfig                `yaml:"log"`
}

// OutputConfig selects the playback backend and stream format.
type OutputConfig struct {
	Backend      string `yaml:"backend"` // oto or malgo
	SampleRate   int    `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	BitDepth     int    `yaml:"bit_depth"`
	BufferFrames int    `yaml:"buffer_frames"`
}

// DeviceConfig describes the output device for platforms where the tools
// cannot introspect it. All fields are optional.
type DeviceConfig struct {
	Platform string `yaml:"platform"`
	Name     string `yaml:"name"`

	// Four character Core Audio transport code, e.g. "blue" or "airp"
	TransportCode string `yaml:"transport_code"`
	BusEnumerator string `yaml:"bus_enumerator"`

	LatencyFrames       uint32  `yaml:"latency_frames"`
	SafetyOffsetFrames  uint32  `yaml:"safety_offset_frames"`
	BufferFrames        uint32  `yaml:"buffer_frames"`
	StreamLatencyFrames uint32  `yaml:"stream_latency_frames"`
	NominalSampleRate   float64 `yaml:"nominal_sample_rate"`

	InputName string `yaml:"input_name"`
}

// CalibrationConfig points at the persisted sync offsets.
type CalibrationConfig struct {
	File string `yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Backend:      "oto",
			SampleRate:   48000,
			Channels:     2,
			BitDepth:     16,
			BufferFrames: 512,
		},
		Correction: latency.DefaultCorrectionConfig(),
		Tuning:     latency.DefaultTuning(),
		Log: LogConfig{
			Level: "info",
			File:  "resonate-latency.log",
		},
	}
}

// Probe builds the device probe described by the device section.
func (c *Config) Probe() (latency.DeviceProbe, error) {
	platform, err := latency.ParsePlatform(c.Device.Platform)
	if err != nil {
		return nil, err
	}

	props := c.Device.properties()
	if platform == latency.PlatformGeneric && props == (latency.DeviceProperties{Name: props.Name}) {
		return latency.GenericProbe{Name: props.Name}, nil
	}

	input := props
	if c.Device.InputName != "" {
		input.Name = c.Device.InputName
	}
	return latency.StaticProbe{Kind: platform, Output: props, Input: input}, nil
}

func (d DeviceConfig) properties() latency.DeviceProperties {
	return latency.DeviceProperties{
		Name:                d.Name,
		TransportCode:       FourCC(d.TransportCode),
		BusEnumerator:       d.BusEnumerator,
		LatencyFrames:       d.LatencyFrames,
		SafetyOffsetFrames:  d.SafetyOffsetFrames,
		BufferFrames:        d.BufferFrames,
		StreamLatencyFrames: d.StreamLatencyFrames,
		NominalSampleRate:   d.NominalSampleRate,
	}
}

// FourCC packs a four character code. Numeric strings are parsed as integers
// and anything else that is not four bytes long yields 0.
func FourCC(code string) uint32 {
	if n, err := strconv.ParseUint(code, 0, 32); err == nil {
		return uint32(n)
	}
	if len(code) != 4 {
		return 0
	}
	return uint32(code[0])<<24 | uint32(code[1])<<16 | uint32(code[2])<<8 | uint32(code[3])
}
