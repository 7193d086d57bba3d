// ABOUTME: PCM sources feeding the latency monitor
// ABOUTME: MP3, FLAC and sine tone, with an optional rate converter
// Package source provides looping PCM sources.
//
// Example:
//
//	src, err := source.Open("music.flac", 48000)
//	src = source.NewResampled(src, 48000)
//	n, err := src.Read(samples)
package source
