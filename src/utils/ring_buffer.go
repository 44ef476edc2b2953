package utils

import (
	"chart-feed/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a circular buffer of samples.
// With a positive capacity the oldest sample is overwritten once full; with
// capacity <= 0 it grows without bound. Storage grows with use up to capacity.
// Not safe for concurrent use.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []models.MSample
	capacity int // 0 means unbounded
	index    int // Next write position once full (bounded mode)
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a buffer; capacity <= 0 makes it unbounded
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{capacity: max(0, capacity)}
}

// -----------------------------------------------------------------------------

// Append adds a sample at the tail, overwriting the head when full.
func (rb *RingBuffer) Append(s models.MSample) {
	if rb.capacity == 0 || len(rb.data) < rb.capacity {
		rb.data = append(rb.data, s)
		rb.size++
		if rb.capacity > 0 {
			rb.index = rb.size % rb.capacity
		}
		return
	}

	rb.data[rb.index] = s
	rb.index = (rb.index + 1) % rb.capacity
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent samples, oldest first
func (rb *RingBuffer) GetLatest(n int) []models.MSample {
	if rb.size == 0 || n <= 0 {
		return []models.MSample{}
	}

	count := min(n, rb.size)
	result := make([]models.MSample, count)

	if rb.size < rb.capacity || rb.capacity == 0 {
		copy(result, rb.data[rb.size-count:])
		return result
	}

	// Latest data is at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all data in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MSample {
	return rb.GetLatest(rb.size)
}

// -----------------------------------------------------------------------------

// Last returns the newest sample.
func (rb *RingBuffer) Last() (models.MSample, bool) {
	if rb.size == 0 {
		return models.MSample{}, false
	}
	if rb.size < rb.capacity || rb.capacity == 0 {
		return rb.data[rb.size-1], true
	}
	return rb.data[(rb.index-1+rb.capacity)%rb.capacity], true
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity, 0 when unbounded
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}
