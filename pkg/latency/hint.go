// ABOUTME: Pre-stream output latency hint resolution
// ABOUTME: Combines device introspection with transport floors to seed the estimator
package latency

import (
	"errors"
	"math"
)

// Hint is a one-shot latency estimate made before the stream starts.
type Hint struct {
	Seconds   float64
	Transport TransportKind
}

// NewHint creates a hint
func NewHint(secs float64, transport TransportKind) *Hint {
	return &Hint{Seconds: secs, Transport: transport}
}

// IsProbablyWireless reports whether the hint came from a wireless endpoint.
func (h Hint) IsProbablyWireless() bool {
	return h.Transport.IsWireless()
}

// Resolver turns device properties into output hints and input estimates.
type Resolver struct {
	probe  DeviceProbe
	tuning Tuning
}

// NewResolver creates a resolver backed by probe
func NewResolver(probe DeviceProbe, tuning Tuning) *Resolver {
	if probe == nil {
		probe = GenericProbe{}
	}
	return &Resolver{probe: probe, tuning: tuning}
}

// DefaultOutputLatencyHint resolves a hint without device introspection.
// Returns nil when sampleRate is zero.
func DefaultOutputLatencyHint(sampleRate, bufferFrames uint32) *Hint {
	return NewResolver(GenericProbe{}, DefaultTuning()).OutputHint(sampleRate, bufferFrames)
}

// OutputHint estimates the output latency of the probe's default device.
// Returns nil when sampleRate is zero or no device exists. Any other probe
// failure degrades to a buffer-duration estimate.
func (r *Resolver) OutputHint(sampleRate, bufferFrames uint32) *Hint {
	if sampleRate == 0 {
		return nil
	}

	props, err := r.probe.OutputDevice()
	if errors.Is(err, ErrNoDevice) {
		return nil
	}

	if err == nil && r.probe.Platform() == PlatformMacOS {
		return r.introspectedHint(props, sampleRate, bufferFrames)
	}

	transport := TransportUnknown
	if err == nil {
		transport = ClassifyDevice(props, r.probe.Platform())
	}
	secs := clamp(float64(bufferFrames)/float64(sampleRate), r.tuning.FallbackWiredSecs, r.tuning.MaxLatencySecs)

	// A buffer-sized guess says nothing about radio buffering.
	floor, _ := r.tuning.constraints(transport)
	secs = math.Max(secs, floor)
	if transport.IsWireless() {
		secs = math.Max(secs, r.tuning.WirelessFallbackSecs)
	}
	return NewHint(math.Min(secs, r.tuning.MaxLatencySecs), transport)
}

// introspectedHint sums the latency terms Core Audio reports for the device.
func (r *Resolver) introspectedHint(props DeviceProperties, sampleRate, requestedFrames uint32) *Hint {
	transport := ClassifyDevice(props, PlatformMacOS)

	bufferFrames := props.BufferFrames
	if bufferFrames == 0 {
		bufferFrames = requestedFrames
	}
	rate := props.effectiveRate(sampleRate)

	total := uint64(props.LatencyFrames) +
		uint64(props.SafetyOffsetFrames) +
		uint64(bufferFrames) +
		uint64(props.StreamLatencyFrames)

	if total == 0 {
		floor, ceiling := r.tuning.constraints(transport)
		secs := math.Max(math.Min(float64(bufferFrames)/rate, ceiling), floor)
		if transport.IsWireless() {
			secs = math.Max(secs, r.tuning.WirelessFallbackSecs)
		}
		return NewHint(math.Min(secs, r.tuning.MaxLatencySecs), transport)
	}

	secs := float64(total) / rate
	switch transport {
	case TransportAirPlay:
		secs = math.Max(secs, r.tuning.AirPlayMinSecs)
	case TransportWireless, TransportContinuityWireless:
		secs = math.Max(secs, r.tuning.WirelessMinSecs)
	}

	return NewHint(math.Min(secs, r.tuning.MaxLatencySecs), transport)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
