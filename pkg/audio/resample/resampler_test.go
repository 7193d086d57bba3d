// ABOUTME: Tests for the streaming resampler
// ABOUTME: Covers passthrough, rate conversion and chunk boundary continuity
package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(start, frames int) []int32 {
	out := make([]int32, frames)
	for i := range out {
		out[i] = int32((start + i) * 100)
	}
	return out
}

func TestPassthrough(t *testing.T) {
	r := New(48000, 48000, 2)
	in := []int32{1, 2, 3, 4}

	assert.True(t, r.Passthrough())
	assert.Equal(t, in, r.Process(in))
}

func TestUpsampleDoublesFrames(t *testing.T) {
	r := New(24000, 48000, 1)
	out := r.Process(ramp(0, 4))

	assert.Equal(t, []int32{0, 50, 100, 150, 200, 250}, out)
	assert.Equal(t, 2.0, r.Ratio())
}

func TestDownsampleHalvesFrames(t *testing.T) {
	r := New(48000, 24000, 1)
	out := r.Process(ramp(0, 8))

	assert.Equal(t, []int32{0, 200, 400, 600}, out)
}

func TestChunkBoundaryIsContinuous(t *testing.T) {
	whole := New(24000, 48000, 1)
	expected := append([]int32(nil), whole.Process(ramp(0, 8))...)

	chunked := New(24000, 48000, 1)
	var got []int32
	got = append(got, chunked.Process(ramp(0, 4))...)
	got = append(got, chunked.Process(ramp(4, 4))...)

	require.Len(t, got, len(expected))
	assert.Equal(t, expected, got)
}

func TestStereoInterleaving(t *testing.T) {
	r := New(24000, 48000, 2)
	out := r.Process([]int32{0, 1000, 100, 1100})

	assert.Equal(t, []int32{0, 1000, 50, 1050}, out)
}

func TestResetAndEstimates(t *testing.T) {
	r := New(24000, 48000, 2)
	r.Process(ramp(0, 10))
	r.Reset()
	assert.Equal(t, 0.0, r.pos)
	assert.False(t, r.hasPrev)

	assert.Equal(t, 882, r.OutputFrames(441))
	assert.Equal(t, 240, r.InputFrames(480))
	assert.Empty(t, r.Process(nil))
}
