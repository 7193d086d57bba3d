// ABOUTME: Audio device latency estimation and correction package
// ABOUTME: Smooths raw per-callback latency readings into one value to compensate for
// Package latency estimates the output (and input) latency of an audio device
// and turns a noisy stream of per-callback readings into a single value that a
// renderer can use to offset its playhead.
//
// The package has three layers:
//   - Resolver: a one-shot, pre-stream Hint built from device introspection
//     or name heuristics, with transport floors applied
//   - Estimator: asymmetric exponential smoothing with warm-up spike rejection
//   - Corrector: session policy (startup freeze, hysteresis, rate limiting)
//
// None of the numeric operations return errors. Missing or garbage readings
// are treated as "no new information".
//
// Example:
//
//	hint := latency.DefaultOutputLatencyHint(48000, 512)
//	corrector := latency.NewCorrector(hint, latency.DefaultCorrectionConfig())
//	offset := corrector.InitialCompensationSecs()
//
//	// From the audio callback:
//	secs := corrector.UpdateFromCallback(timing)
package latency
