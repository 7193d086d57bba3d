// ABOUTME: PCM sample packing for output devices
// ABOUTME: Encodes 24-bit range int32 samples to 16, 24 or 32-bit little-endian bytes
package pcm

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/resonate-latency/pkg/audio"
)

// Encoder packs samples at a fixed bit depth
type Encoder struct {
	bitDepth int
	buf      []byte
}

// NewEncoder creates an encoder for 16, 24 or 32-bit output
func NewEncoder(bitDepth int) (*Encoder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", bitDepth)
	}
	return &Encoder{bitDepth: bitDepth}, nil
}

// BitDepth returns the output sample width
func (e *Encoder) BitDepth() int {
	return e.bitDepth
}

// BytesPerSample returns the encoded size of one sample
func (e *Encoder) BytesPerSample() int {
	return e.bitDepth / 8
}

// Encode converts samples into an internal buffer that is reused by the next call
func (e *Encoder) Encode(samples []int32) []byte {
	size := len(samples) * e.BytesPerSample()
	if cap(e.buf) < size {
		e.buf = make([]byte, size)
	}
	out := e.buf[:size]
	e.EncodeInto(out, samples)
	return out
}

// EncodeInto writes samples into dst, which must hold len(samples)*BytesPerSample bytes
func (e *Encoder) EncodeInto(dst []byte, samples []int32) {
	switch e.bitDepth {
	case 16:
		for i, s := range samples {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(audio.SampleToInt16(s)))
		}
	case 24:
		for i, s := range samples {
			audio.PutSample24(dst[i*3:], s)
		}
	case 32:
		for i, s := range samples {
			binary.LittleEndian.PutUint32(dst[i*4:], uint32(audio.Clip24(int64(s))<<8))
		}
	}
}
