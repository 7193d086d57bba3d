// ABOUTME: Audible playhead computation
// ABOUTME: Subtracts queued audio and device latency from the generated position
package latency

import "math"

// AudiblePlayhead returns the position, in seconds, that is reaching the
// listener now: generated audio minus what is still buffered minus the
// device latency. It never goes below zero.
func AudiblePlayhead(generatedSecs float64, bufferedFrames int, sampleRate uint32, deviceLatencySecs float64) float64 {
	var bufferedSecs float64
	if sampleRate > 0 && bufferedFrames > 0 {
		bufferedSecs = float64(bufferedFrames) / float64(sampleRate)
	}
	audible := generatedSecs - bufferedSecs - math.Max(deviceLatencySecs, 0)
	if audible < 0 || math.IsNaN(audible) {
		return 0
	}
	return audible
}
