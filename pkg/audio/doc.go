// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the PCM types shared by sources and playback backends.
//
// Samples are carried as int32 holding a 24-bit value. Helpers convert to and
// from 16-bit, packed 24-bit bytes and floating point.
//
// Example:
//
//	format := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}
//	tenMs := format.FramesFor(10 * time.Millisecond) // 480
//	s16 := audio.SampleToInt16(sample)
package audio
