// ABOUTME: Fixed-capacity sample ring shared by the writer and the device callback
// ABOUTME: Zero-fills on underrun and tracks fill level for latency reporting
package output

import "sync"

// RingBuffer is a thread-safe circular buffer of interleaved samples
type RingBuffer struct {
	mu       sync.Mutex
	buffer   []int32
	readPos  int
	writePos int
	count    int
}

// NewRingBuffer creates a ring buffer with capacity samples
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{buffer: make([]int32, capacity)}
}

// Write copies as many samples as fit and returns that count
func (rb *RingBuffer) Write(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.buffer)
	n := min(len(samples), size-rb.count)
	for i := 0; i < n; i++ {
		rb.buffer[rb.writePos] = samples[i]
		rb.writePos = (rb.writePos + 1) % size
	}
	rb.count += n
	return n
}

// Read fills samples, zero-filling past an underrun, and returns the number of real samples
func (rb *RingBuffer) Read(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.buffer)
	n := min(len(samples), rb.count)
	for i := 0; i < n; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % size
	}
	clear(samples[n:])
	rb.count -= n
	return n
}

// Available returns the number of queued samples
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of samples that can be written without blocking
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buffer) - rb.count
}
