// ABOUTME: PCM format and buffer types shared by sources and outputs
// ABOUTME: Samples are int32 left-justified in a 24-bit range
package audio

import (
	"fmt"
	"time"
)

const (
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes an interleaved PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// String renders the format as "48000Hz/2ch/16bit"
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// Validate checks that the format can be played
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	switch f.BitDepth {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
}

// FrameDuration converts a frame count into wall time at this sample rate
func (f Format) FrameDuration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// FramesFor converts a duration into whole frames
func (f Format) FramesFor(d time.Duration) int {
	return int(d * time.Duration(f.SampleRate) / time.Second)
}

// Buffer is a chunk of interleaved PCM
type Buffer struct {
	Samples []int32
	Format  Format
	// Position of the first frame within the source timeline
	Position time.Duration
}

// Frames returns the number of frames in the buffer
func (b Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// SampleToInt16 drops the low byte of a 24-bit sample
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 widens a 16-bit sample into the 24-bit range
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromFloat maps [-1, 1] onto the 24-bit range, clipping outside it
func SampleFromFloat(v float64) int32 {
	scaled := int64(v * Max24Bit)
	if scaled > Max24Bit {
		return Max24Bit
	}
	if scaled < Min24Bit {
		return Min24Bit
	}
	return int32(scaled)
}

// Clip24 clamps a wide intermediate value into the 24-bit range
func Clip24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}

// PutSample24 packs a sample as little-endian 24-bit
func PutSample24(dst []byte, sample int32) {
	dst[0] = byte(sample)
	dst[1] = byte(sample >> 8)
	dst[2] = byte(sample >> 16)
}

// Sample24 reads a little-endian 24-bit sample, sign-extending it
func Sample24(src []byte) int32 {
	v := int32(src[0]) | int32(src[1])<<8 | int32(src[2])<<16
	if v&0x800000 != 0 {
		v |= ^0xFFFFFF
	}
	return v
}
