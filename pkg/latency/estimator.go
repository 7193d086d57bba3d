// ABOUTME: Output latency estimator with asymmetric exponential smoothing
// ABOUTME: Rises fast, falls slowly, rejects warm-up spikes and honors transport floors
package latency

import (
	"math"
	"time"
)

// CallbackTiming is the timing record an audio backend delivers per callback.
type CallbackTiming struct {
	// Callback is when the callback ran, Playback when its first frame will
	// reach the transducer. Both are measured on the same stream clock.
	Callback      time.Duration
	Playback      time.Duration
	HasTimestamps bool
}

// NewCallbackTiming builds a timing record from a known output latency.
func NewCallbackTiming(callback, latency time.Duration) CallbackTiming {
	return CallbackTiming{Callback: callback, Playback: callback + latency, HasTimestamps: true}
}

// Latency returns Playback - Callback. ok is false when the backend gave no
// timestamps or playback precedes the callback.
func (c CallbackTiming) Latency() (time.Duration, bool) {
	if !c.HasTimestamps || c.Playback < c.Callback {
		return 0, false
	}
	return c.Playback - c.Callback, true
}

// Estimator tracks the latency reported by the active output device.
// It is not safe for concurrent use.
type Estimator struct {
	clock  Clock
	tuning Tuning

	smoothed    float64
	hasSmoothed bool
	lastRaw     float64
	hasLastRaw  bool
	updateCount uint64
	bias        float64

	lastUpdate    time.Time
	hasLastUpdate bool

	floor   float64
	ceiling float64
}

// NewEstimator creates an estimator with no bias and no seeded value
func NewEstimator(opts ...Option) *Estimator {
	return NewEstimatorWithBias(0, opts...)
}

// NewEstimatorWithBias creates an estimator that adds bias to every
// observation. A positive bias also seeds the current value.
func NewEstimatorWithBias(bias float64, opts ...Option) *Estimator {
	s := newSettings(opts)
	return newEstimator(bias, s)
}

func newEstimator(bias float64, s settings) *Estimator {
	e := &Estimator{
		clock:   s.clock,
		tuning:  s.tuning,
		bias:    clampBias(bias, s.tuning.MaxLatencySecs),
		ceiling: s.tuning.MaxLatencySecs,
	}
	if e.bias > 0 {
		e.smoothed = e.bias
		e.hasSmoothed = true
	}
	return e
}

// EstimatorFromHint applies the hint's transport floor and ceiling and seeds
// the current value from it. A nil hint yields a plain estimator.
func EstimatorFromHint(hint *Hint, opts ...Option) *Estimator {
	return estimatorFromHint(hint, newSettings(opts))
}

func estimatorFromHint(hint *Hint, s settings) *Estimator {
	e := newEstimator(0, s)
	if hint == nil {
		return e
	}

	floor, ceiling := s.tuning.constraints(hint.Transport)
	e.SetFloorAndCeiling(floor, ceiling)

	if hint.Seconds > 0 {
		e.smoothed = clamp(hint.Seconds, e.floor, e.ceiling)
		e.hasSmoothed = true
		e.lastUpdate = e.clock.Now()
		e.hasLastUpdate = true
	}
	return e
}

// SetBiasSecs sets the constant offset added to observations.
func (e *Estimator) SetBiasSecs(bias float64) {
	e.bias = clampBias(bias, e.tuning.MaxLatencySecs)
}

// SetFloorAndCeiling bounds the smoothed value, re-clamping the current one.
func (e *Estimator) SetFloorAndCeiling(floor, ceiling float64) {
	limit := e.tuning.MaxLatencySecs
	if math.IsNaN(floor) {
		floor = 0
	}
	if math.IsNaN(ceiling) {
		ceiling = limit
	}
	e.floor = clamp(floor, 0, limit)
	e.ceiling = math.Min(math.Max(ceiling, e.floor), limit)
	if e.hasSmoothed {
		e.smoothed = clamp(e.smoothed, e.floor, e.ceiling)
	}
}

// Reset discards all observations. Bias, floor and ceiling survive.
func (e *Estimator) Reset() {
	floor, ceiling := e.floor, e.ceiling
	*e = *newEstimator(e.bias, settings{clock: e.clock, tuning: e.tuning})
	e.SetFloorAndCeiling(floor, ceiling)
}

// ObserveCallback extracts the latency from a callback timing record.
func (e *Estimator) ObserveCallback(timing CallbackTiming) (float64, bool) {
	return e.ObserveLatency(timing.Latency())
}

// ObserveLatency feeds one optional observation and returns the current value.
func (e *Estimator) ObserveLatency(latency time.Duration, ok bool) (float64, bool) {
	if ok {
		e.record(latency.Seconds())
	}
	return e.CurrentSecs()
}

// ObserveSecs feeds one observation in seconds and returns the current value.
func (e *Estimator) ObserveSecs(secs float64) (float64, bool) {
	e.record(secs)
	return e.CurrentSecs()
}

// CurrentSecs returns the smoothed latency, if any observation has been accepted.
func (e *Estimator) CurrentSecs() (float64, bool) {
	return e.smoothed, e.hasSmoothed
}

// CurrentDuration returns CurrentSecs as a time.Duration
func (e *Estimator) CurrentDuration() (time.Duration, bool) {
	if !e.hasSmoothed {
		return 0, false
	}
	return secondsToDuration(math.Max(e.smoothed, 0)), true
}

// LastRawSecs returns the last accepted raw reading after ceiling clamping
func (e *Estimator) LastRawSecs() (float64, bool) {
	return e.lastRaw, e.hasLastRaw
}

// UpdateCount returns how many observations passed validation
func (e *Estimator) UpdateCount() uint64 {
	return e.updateCount
}

// BiasSecs returns the configured bias
func (e *Estimator) BiasSecs() float64 {
	return e.bias
}

// Floor returns the lower bound of the smoothed value
func (e *Estimator) Floor() float64 {
	return e.floor
}

// Ceiling returns the upper bound of the smoothed value
func (e *Estimator) Ceiling() float64 {
	return e.ceiling
}

func (e *Estimator) record(secs float64) {
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return
	}

	clamped := math.Min(secs, e.ceiling)
	if clamped < e.tuning.MinValidLatencySecs {
		return
	}

	// Early spikes are counted but kept out of the smoothed value.
	if e.hasLastRaw &&
		e.updateCount < e.tuning.WarmupGuardSamples &&
		clamped > e.lastRaw*e.tuning.WarmupSpikeRatio {
		e.lastRaw = clamped
		e.updateCount++
		return
	}

	now := e.clock.Now()
	var dt float64
	if e.hasLastUpdate {
		dt = now.Sub(e.lastUpdate).Seconds()
	}
	e.lastUpdate = now
	e.hasLastUpdate = true

	e.lastRaw = clamped
	e.hasLastRaw = true
	e.updateCount++

	target := clamp(clamped+e.bias, e.floor, e.ceiling)

	if !e.hasSmoothed {
		e.smoothed = target
		e.hasSmoothed = true
		return
	}

	current := e.smoothed
	rising := target > current
	tau := e.tuning.DecreaseTauSecs
	if rising {
		tau = e.tuning.IncreaseTauSecs
	}

	next := current + (target-current)*timeBasedAlpha(dt, tau)
	if rising && dt > 0 {
		next = math.Min(next, current+e.tuning.MaxRisePerSec*dt)
	}
	e.smoothed = next
}

// timeBasedAlpha converts elapsed time into an EMA weight for time constant tau.
func timeBasedAlpha(dt, tau float64) float64 {
	if tau <= 0 || dt <= 0 {
		return 1
	}
	return clamp(1-math.Exp(-dt/tau), 0, 1)
}

func clampBias(bias, limit float64) float64 {
	if math.IsNaN(bias) {
		return 0
	}
	return clamp(bias, 0, limit)
}
