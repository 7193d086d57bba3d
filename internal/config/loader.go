// ABOUTME: YAML configuration loading and validation
// ABOUTME: Decodes over defaults with unknown-field checking and joins all validation errors
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

// Load reads the YAML configuration at path. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r on top of Default() and validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns a joined error listing every problem in cfg.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Output.Backend {
	case "oto", "malgo":
	default:
		errs = append(errs, fmt.Errorf("output.backend %q is invalid; valid values: oto, malgo", cfg.Output.Backend))
	}
	if cfg.Output.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("output.sample_rate must be positive, got %d", cfg.Output.SampleRate))
	}
	if cfg.Output.Channels <= 0 {
		errs = append(errs, fmt.Errorf("output.channels must be positive, got %d", cfg.Output.Channels))
	}
	switch cfg.Output.BitDepth {
	case 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("output.bit_depth %d is invalid; valid values: 16, 24, 32", cfg.Output.BitDepth))
	}
	if cfg.Output.BufferFrames < 0 {
		errs = append(errs, fmt.Errorf("output.buffer_frames must not be negative, got %d", cfg.Output.BufferFrames))
	}

	if _, err := latency.ParsePlatform(cfg.Device.Platform); err != nil {
		errs = append(errs, fmt.Errorf("device.platform: %w", err))
	}
	if code := cfg.Device.TransportCode; code != "" && FourCC(code) == 0 {
		errs = append(errs, fmt.Errorf("device.transport_code %q must be four characters or a number", code))
	}

	if err := cfg.Correction.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("correction: %w", err))
	}

	t := cfg.Tuning
	if t.MaxLatencySecs <= 0 {
		errs = append(errs, fmt.Errorf("tuning.max_latency_secs must be positive, got %v", t.MaxLatencySecs))
	}
	if t.IncreaseTauSecs < 0 || t.DecreaseTauSecs < 0 {
		errs = append(errs, errors.New("tuning time constants must not be negative"))
	}
	if t.AirPlayMinSecs > t.MaxLatencySecs || t.WirelessMinSecs > t.MaxLatencySecs {
		errs = append(errs, errors.New("tuning transport floors must not exceed max_latency_secs"))
	}

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}

	return errors.Join(errs...)
}
