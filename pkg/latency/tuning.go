// ABOUTME: Tuning constants for the latency control loop
// ABOUTME: Time constants, floors and ceilings grouped into one value
package latency

// Tuning holds the behavioral constants used by the estimator and resolver.
type Tuning struct {
	MaxLatencySecs      float64 `yaml:"max_latency_secs"`
	MinValidLatencySecs float64 `yaml:"min_valid_latency_secs"`

	IncreaseTauSecs float64 `yaml:"increase_tau_secs"`
	DecreaseTauSecs float64 `yaml:"decrease_tau_secs"`
	MaxRisePerSec   float64 `yaml:"max_rise_per_sec"`

	WarmupGuardSamples uint64  `yaml:"warmup_guard_samples"`
	WarmupSpikeRatio   float64 `yaml:"warmup_spike_ratio"`

	WirelessMinSecs      float64 `yaml:"wireless_min_secs"`
	AirPlayMinSecs       float64 `yaml:"airplay_min_secs"`
	FallbackWiredSecs    float64 `yaml:"fallback_wired_secs"`
	WirelessFallbackSecs float64 `yaml:"wireless_fallback_secs"`

	WirelessInputSecs float64 `yaml:"wireless_input_secs"`
	WiredInputSecs    float64 `yaml:"wired_input_secs"`
}

// DefaultTuning returns the constants the control loop was calibrated with.
func DefaultTuning() Tuning {
	return Tuning{
		MaxLatencySecs:      3.0,
		MinValidLatencySecs: 0.0001, // 0.1ms

		IncreaseTauSecs: 0.25, // follow a slower device quickly
		DecreaseTauSecs: 1.0,
		MaxRisePerSec:   0.75,

		WarmupGuardSamples: 3,
		WarmupSpikeRatio:   50,

		WirelessMinSecs:      0.12,
		AirPlayMinSecs:       1.8,
		FallbackWiredSecs:    0.03,
		WirelessFallbackSecs: 0.20,

		WirelessInputSecs: 0.12,
		WiredInputSecs:    0.01,
	}
}

// constraints returns the floor and ceiling for a transport.
func (t Tuning) constraints(kind TransportKind) (floor, ceiling float64) {
	switch kind {
	case TransportAirPlay:
		return t.AirPlayMinSecs, t.MaxLatencySecs
	case TransportWireless, TransportContinuityWireless:
		return t.WirelessMinSecs, t.MaxLatencySecs
	default:
		return 0, t.MaxLatencySecs
	}
}
