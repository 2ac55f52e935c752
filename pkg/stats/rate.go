package stats

import (
	"sync"
	"time"
)

const DefaultWindow = 30

// RateTracker estimates the frame rate over a sliding window
// of the most recent completion timestamps.
type RateTracker struct {
	mu     sync.Mutex
	window []time.Time // ring buffer
	head   int
	n      int
}

func NewRateTracker(size int) *RateTracker {
	if size < 2 {
		size = DefaultWindow
	}
	return &RateTracker{window: make([]time.Time, size)}
}

// Record adds a completion timestamp evicting the oldest one when full.
func (r *RateTracker) Record(t time.Time) {
	r.mu.Lock()
	if r.n < len(r.window) {
		r.window[(r.head+r.n)%len(r.window)] = t
		r.n++
	} else {
		r.window[r.head] = t
		r.head = (r.head + 1) % len(r.window)
	}
	r.mu.Unlock()
}

// Rate returns frames per second, or 0 with less than two samples.
func (r *RateTracker) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n < 2 {
		return 0
	}
	oldest := r.window[r.head]
	newest := r.window[(r.head+r.n-1)%len(r.window)]
	elapsed := newest.Sub(oldest)
	if elapsed < time.Nanosecond {
		elapsed = time.Nanosecond
	}
	return float64(r.n-1) / elapsed.Seconds()
}

func (r *RateTracker) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func (r *RateTracker) Reset() {
	r.mu.Lock()
	r.head, r.n = 0, 0
	r.mu.Unlock()
}
