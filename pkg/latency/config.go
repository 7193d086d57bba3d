// ABOUTME: Latency correction policy configuration
// ABOUTME: Freeze window, hysteresis, rate limit and initial safety multiplier
package latency

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// CorrectionConfig is the session policy applied by a Corrector.
type CorrectionConfig struct {
	// Minimum change in latency before a correction is applied
	MinApplyDeltaSecs float64 `yaml:"min_apply_delta_secs"`

	// Accepted observations required before rate-limited tracking starts
	MinUpdatesForDynamic uint64 `yaml:"min_updates_for_dynamic"`

	// Maximum adopted change per second of wall time once dynamic
	MaxChangePerSec float64 `yaml:"max_change_per_sec"`

	// Window after construction during which the first value is held
	InitialFreezeSecs float64 `yaml:"initial_freeze_duration_secs"`

	// Logged values must differ by at least this much
	LogChangeThresholdMs int `yaml:"log_change_threshold_ms"`

	// Scales the seeded estimate into the pre-stream compensation
	InitialSafetyMultiplier float64 `yaml:"initial_safety_multiplier"`
}

// DefaultCorrectionConfig returns the default session policy
func DefaultCorrectionConfig() CorrectionConfig {
	return CorrectionConfig{
		MinApplyDeltaSecs:       0.005, // 5ms
		MinUpdatesForDynamic:    4,
		MaxChangePerSec:         0.15,
		InitialFreezeSecs:       0.35,
		LogChangeThresholdMs:    5,
		InitialSafetyMultiplier: 2.0,
	}
}

// Validate reports every invalid field.
func (c CorrectionConfig) Validate() error {
	var errs []error
	check := func(name string, v float64) {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidConfig, name, v))
		}
	}
	check("min_apply_delta_secs", c.MinApplyDeltaSecs)
	check("max_change_per_sec", c.MaxChangePerSec)
	check("initial_freeze_duration_secs", c.InitialFreezeSecs)
	check("initial_safety_multiplier", c.InitialSafetyMultiplier)

	if c.InitialSafetyMultiplier == 0 {
		errs = append(errs, fmt.Errorf("%w: initial_safety_multiplier must be positive", ErrInvalidConfig))
	}
	if c.LogChangeThresholdMs < 0 {
		errs = append(errs, fmt.Errorf("%w: log_change_threshold_ms must not be negative, got %d", ErrInvalidConfig, c.LogChangeThresholdMs))
	}
	return errors.Join(errs...)
}

func (c CorrectionConfig) freezeDuration() time.Duration {
	if c.InitialFreezeSecs <= 0 || math.IsNaN(c.InitialFreezeSecs) {
		return 0
	}
	return secondsToDuration(c.InitialFreezeSecs)
}
