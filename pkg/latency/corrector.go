// ABOUTME: Session-level latency correction policy
// ABOUTME: Startup freeze, hysteresis and rate-limited adoption around an Estimator
package latency

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Phase is the regime the corrector is in for a given callback.
type Phase int

const (
	// PhaseFrozen holds the first value while the device settles
	PhaseFrozen Phase = iota
	// PhaseWarming adopts changes only past the hysteresis threshold
	PhaseWarming
	// PhaseDynamic tracks the estimate at a bounded rate
	PhaseDynamic
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseFrozen:
		return "frozen"
	case PhaseWarming:
		return "warming"
	case PhaseDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Decision describes one corrector update.
type Decision struct {
	Seconds      float64 // value handed to the renderer
	EstimateSecs float64 // smoothed estimator output
	RawSecs      float64 // last accepted raw reading, 0 if none
	Phase        Phase
	UpdateCount  uint64
	Observed     bool // the estimator accepted a new reading
	RateLimited  bool // the change was capped this call
}

// Reporter receives corrector decisions. Implementations must not block.
type Reporter interface {
	Report(Decision)
}

// Corrector turns per-callback readings into one vetted latency value.
// It is owned by a single audio stream and is not safe for concurrent use.
type Corrector struct {
	estimator *Estimator
	config    CorrectionConfig
	clock     Clock
	logger    *logrus.Entry
	reporter  Reporter

	lastUsed      float64
	hasLastUsed   bool
	lastLoggedMs  int
	hasLastLogged bool
	lastUpdate    time.Time
	freezeUntil   time.Time
}

// NewCorrector seeds an estimator from hint (nil for none) and opens the freeze window.
func NewCorrector(hint *Hint, config CorrectionConfig, opts ...Option) *Corrector {
	s := newSettings(opts)
	now := s.clock.Now()

	return &Corrector{
		estimator:   estimatorFromHint(hint, s),
		config:      config,
		clock:       s.clock,
		logger:      s.logger,
		reporter:    s.reporter,
		lastUpdate:  now,
		freezeUntil: now.Add(config.freezeDuration()),
	}
}

// InitialCompensationSecs is the pre-stream offset: the seeded estimate
// scaled by the safety multiplier.
func (c *Corrector) InitialCompensationSecs() float64 {
	secs, _ := c.estimator.CurrentSecs()
	return secs * c.config.InitialSafetyMultiplier
}

// UpdateFromCallback feeds one callback's timing and returns the latency to compensate for.
func (c *Corrector) UpdateFromCallback(timing CallbackTiming) float64 {
	latency, ok := timing.Latency()
	return c.UpdateFromLatency(latency, ok)
}

// UpdateFromLatency is UpdateFromCallback for backends that measure latency directly.
func (c *Corrector) UpdateFromLatency(latency time.Duration, ok bool) float64 {
	prevCount := c.estimator.UpdateCount()

	estimate, hasEstimate := c.estimator.ObserveLatency(latency, ok)
	if !hasEstimate {
		estimate = c.lastUsed // zero when nothing has been used yet
	}

	now := c.clock.Now()
	phase := c.phaseAt(now)
	rateLimited := false

	secs := estimate
	if c.hasLastUsed {
		previous := c.lastUsed
		switch phase {
		case PhaseFrozen:
			secs = previous
		case PhaseDynamic:
			dt := math.Max(now.Sub(c.lastUpdate).Seconds(), 0)
			maxDelta := math.Max(c.config.MaxChangePerSec*dt, c.config.MinApplyDeltaSecs)
			delta := estimate - previous
			if math.Abs(delta) > maxDelta {
				secs = previous + math.Copysign(maxDelta, delta)
				rateLimited = true
			}
			c.lastUpdate = now
		default:
			if math.Abs(estimate-previous) < c.config.MinApplyDeltaSecs {
				secs = previous
			} else {
				c.lastUpdate = now
			}
		}
	} else {
		c.lastUpdate = now
	}

	c.lastUsed = secs
	c.hasLastUsed = true

	count := c.estimator.UpdateCount()
	observed := count != prevCount
	if observed {
		c.maybeLog(secs)
	}

	if c.reporter != nil {
		raw, _ := c.estimator.LastRawSecs()
		c.reporter.Report(Decision{
			Seconds:      secs,
			EstimateSecs: estimate,
			RawSecs:      raw,
			Phase:        phase,
			UpdateCount:  count,
			Observed:     observed,
			RateLimited:  rateLimited,
		})
	}

	return secs
}

func (c *Corrector) maybeLog(secs float64) {
	ms := int(math.Round(secs * 1000))
	if c.hasLastLogged {
		if absInt(c.lastLoggedMs-ms) < c.config.LogChangeThresholdMs {
			return
		}
	} else if ms < 0 {
		return
	}

	c.logger.WithFields(logrus.Fields{
		"function":     "UpdateFromLatency",
		"update_count": c.estimator.UpdateCount(),
	}).Infof("Estimated audio output latency: %.1f ms", secs*1000)

	c.lastLoggedMs = ms
	c.hasLastLogged = true
}

// CurrentLatencySecs returns the last value handed out, if any.
func (c *Corrector) CurrentLatencySecs() (float64, bool) {
	return c.lastUsed, c.hasLastUsed
}

// Phase reports the regime the next update would run in.
func (c *Corrector) Phase() Phase {
	return c.phaseAt(c.clock.Now())
}

func (c *Corrector) phaseAt(now time.Time) Phase {
	if now.Before(c.freezeUntil) {
		return PhaseFrozen
	}
	if c.estimator.UpdateCount() >= c.config.MinUpdatesForDynamic {
		return PhaseDynamic
	}
	return PhaseWarming
}

// Estimator exposes the underlying estimator, e.g. to apply a calibration bias.
func (c *Corrector) Estimator() *Estimator {
	return c.estimator
}

// Config returns the active policy
func (c *Corrector) Config() CorrectionConfig {
	return c.config
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
