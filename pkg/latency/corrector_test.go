package latency

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	decisions []Decision
}

func (r *recordingReporter) Report(d Decision) {
	r.decisions = append(r.decisions, d)
}

func (r *recordingReporter) last() Decision {
	return r.decisions[len(r.decisions)-1]
}

func quietLogger() Option {
	logger, _ := test.NewNullLogger()
	return WithLogger(logrus.NewEntry(logger))
}

func ms(v float64) time.Duration {
	return secondsToDuration(v / 1000)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "frozen", PhaseFrozen.String())
	assert.Equal(t, "warming", PhaseWarming.String())
	assert.Equal(t, "dynamic", PhaseDynamic.String())
	assert.Equal(t, "unknown", Phase(9).String())
}

func TestCorrectorInitialCompensation(t *testing.T) {
	cfg := DefaultCorrectionConfig()
	cfg.InitialSafetyMultiplier = 3.0

	c := NewCorrector(NewHint(0.1, TransportWired), cfg, quietLogger())
	assert.InDelta(t, 0.3, c.InitialCompensationSecs(), 1e-12)

	est, _ := c.Estimator().CurrentSecs()
	assert.Equal(t, est*3.0, c.InitialCompensationSecs())

	noHint := NewCorrector(nil, DefaultCorrectionConfig(), quietLogger())
	assert.Equal(t, 0.0, noHint.InitialCompensationSecs())
	_, ok := noHint.CurrentLatencySecs()
	assert.False(t, ok)
}

func TestCorrectorFreezeWindow(t *testing.T) {
	clock := NewManualClock(testEpoch)
	c := NewCorrector(NewHint(0.1, TransportWired), DefaultCorrectionConfig(), WithClock(clock), quietLogger())

	first := c.UpdateFromLatency(ms(100), true)
	require.InDelta(t, 0.1, first, 1e-12)

	for _, raw := range []float64{500, 20, 1000, 300, 50, 2000} {
		clock.Advance(50 * time.Millisecond)
		assert.Equal(t, PhaseFrozen, c.Phase())
		assert.Equal(t, first, c.UpdateFromLatency(ms(raw), true), "raw %vms inside freeze", raw)
	}

	current, ok := c.CurrentLatencySecs()
	require.True(t, ok)
	assert.Equal(t, first, current)
}

func TestCorrectorWarmingHysteresis(t *testing.T) {
	clock := NewManualClock(testEpoch)
	cfg := DefaultCorrectionConfig()
	cfg.InitialFreezeSecs = 0
	cfg.MinUpdatesForDynamic = 100

	c := NewCorrector(nil, cfg, WithClock(clock), quietLogger())

	assert.InDelta(t, 0.1, c.UpdateFromLatency(ms(100), true), 1e-12)

	clock.Advance(time.Second)
	assert.Equal(t, PhaseWarming, c.Phase())
	assert.InDelta(t, 0.1, c.UpdateFromLatency(ms(102), true), 1e-12, "sub-threshold change is ignored")

	clock.Advance(time.Second)
	got := c.UpdateFromLatency(ms(300), true)
	est, _ := c.Estimator().CurrentSecs()
	assert.Equal(t, est, got, "large change is adopted directly")
	assert.Greater(t, got, 0.25)
}

func TestCorrectorRateLimitsDynamicChanges(t *testing.T) {
	clock := NewManualClock(testEpoch)
	reporter := &recordingReporter{}
	c := NewCorrector(nil, DefaultCorrectionConfig(), WithClock(clock), WithReporter(reporter), quietLogger())

	c.UpdateFromLatency(ms(100), true)
	clock.Advance(400 * time.Millisecond)
	c.UpdateFromLatency(ms(100), true)
	assert.Equal(t, PhaseWarming, reporter.last().Phase)

	clock.Advance(100 * time.Millisecond)
	c.UpdateFromLatency(ms(100), true)
	clock.Advance(100 * time.Millisecond)
	c.UpdateFromLatency(ms(100), true)
	require.Equal(t, uint64(4), c.Estimator().UpdateCount())
	assert.Equal(t, PhaseDynamic, reporter.last().Phase)

	// 500ms jump, 100ms after the last applied update
	clock.Advance(100 * time.Millisecond)
	got := c.UpdateFromLatency(ms(600), true)

	assert.InDelta(t, 0.1+0.015, got, 1e-9)
	d := reporter.last()
	assert.True(t, d.RateLimited)
	assert.True(t, d.Observed)
	assert.Equal(t, PhaseDynamic, d.Phase)
	assert.InDelta(t, 0.6, d.RawSecs, 1e-12)
	assert.Greater(t, d.EstimateSecs, got)
}

func TestCorrectorRateLimitUsesMinimumDelta(t *testing.T) {
	clock := NewManualClock(testEpoch)
	cfg := DefaultCorrectionConfig()
	cfg.InitialFreezeSecs = 0
	cfg.MinUpdatesForDynamic = 1

	c := NewCorrector(nil, cfg, WithClock(clock), quietLogger())
	c.UpdateFromLatency(ms(100), true)

	clock.Advance(10 * time.Millisecond)
	got := c.UpdateFromLatency(ms(300), true)
	assert.InDelta(t, 0.105, got, 1e-9, "0.15/s * 10ms is below the 5ms minimum step")
}

func TestCorrectorMissingTimestamps(t *testing.T) {
	clock := NewManualClock(testEpoch)
	c := NewCorrector(nil, DefaultCorrectionConfig(), WithClock(clock), quietLogger())

	assert.Equal(t, 0.0, c.UpdateFromCallback(CallbackTiming{}))
	current, ok := c.CurrentLatencySecs()
	require.True(t, ok)
	assert.Equal(t, 0.0, current)

	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 0.0, c.UpdateFromCallback(NewCallbackTiming(time.Second, 40*time.Millisecond)), "frozen")
	assert.Equal(t, uint64(1), c.Estimator().UpdateCount())
}

func TestCorrectorPhaseProgression(t *testing.T) {
	clock := NewManualClock(testEpoch)
	c := NewCorrector(nil, DefaultCorrectionConfig(), WithClock(clock), quietLogger())

	assert.Equal(t, PhaseFrozen, c.Phase())

	clock.Advance(350 * time.Millisecond)
	assert.Equal(t, PhaseWarming, c.Phase())

	for i := 0; i < 4; i++ {
		c.UpdateFromLatency(ms(20), true)
		clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, PhaseDynamic, c.Phase())
}

func TestCorrectorLogsSignificantChanges(t *testing.T) {
	logger, hook := test.NewNullLogger()
	clock := NewManualClock(testEpoch)
	cfg := DefaultCorrectionConfig()
	cfg.InitialFreezeSecs = 0
	cfg.MinUpdatesForDynamic = 100

	c := NewCorrector(nil, cfg, WithClock(clock), WithLogger(logrus.NewEntry(logger)))

	c.UpdateFromLatency(ms(100), true)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "Estimated audio output latency: 100.0 ms", hook.LastEntry().Message)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	clock.Advance(time.Second)
	c.UpdateFromLatency(ms(102), true)
	c.UpdateFromLatency(0, false)
	assert.Len(t, hook.Entries, 1, "no log below threshold or without a new reading")

	clock.Advance(time.Second)
	c.UpdateFromLatency(ms(300), true)
	require.Len(t, hook.Entries, 2)
	assert.Contains(t, hook.LastEntry().Message, "Estimated audio output latency: 29")
}

func TestCorrectorBiasFromEstimator(t *testing.T) {
	clock := NewManualClock(testEpoch)
	c := NewCorrector(nil, DefaultCorrectionConfig(), WithClock(clock), quietLogger())
	c.Estimator().SetBiasSecs(0.05)

	assert.InDelta(t, 0.07, c.UpdateFromLatency(ms(20), true), 1e-9)
	assert.Equal(t, DefaultCorrectionConfig(), c.Config())
}
