// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Bridges a source sample rate to the playback device rate
// Package resample converts PCM between sample rates.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	for chunk := range chunks {
//	    out := r.Process(chunk)
//	    output.Write(out)
//	}
package resample
