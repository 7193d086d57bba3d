// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface with oto and malgo implementations
// Package output provides audio playback backends that report latency.
//
// Every backend publishes a latency.CallbackTiming per device callback (malgo)
// or per write (oto) so a latency.Corrector can track the real output delay.
//
// Example:
//
//	out, _ := output.New("malgo")
//	err := out.Open(48000, 2, 16)
//	go func() {
//	    for timing := range out.Timings() {
//	        secs := corrector.UpdateFromCallback(timing)
//	    }
//	}()
//	err = out.Write(samples)
package output
