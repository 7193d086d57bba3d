package latency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAudiblePlayhead(t *testing.T) {
	tests := []struct {
		name      string
		generated float64
		buffered  int
		rate      uint32
		latency   float64
		expected  float64
	}{
		{"subtracts buffer and latency", 10, 4800, 48000, 0.2, 9.7},
		{"never negative", 0.1, 48000, 48000, 0.5, 0},
		{"zero rate ignores buffer", 5, 4800, 0, 0.5, 4.5},
		{"negative latency ignored", 5, 0, 48000, -1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AudiblePlayhead(tt.generated, tt.buffered, tt.rate, tt.latency), 1e-9)
		})
	}
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock(testEpoch)
	assert.Equal(t, testEpoch, clock.Now())

	clock.Advance(time.Second)
	clock.AdvanceSecs(0.5)
	assert.Equal(t, testEpoch.Add(1500*time.Millisecond), clock.Now())

	clock.Set(testEpoch)
	assert.Equal(t, testEpoch, clock.Now())

	assert.WithinDuration(t, time.Now(), SystemClock{}.Now(), time.Second)
}
