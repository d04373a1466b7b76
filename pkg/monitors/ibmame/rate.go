package ibmame

import (
	"math"
	"sync"
)

const nanosPerSecond = 1e9

// RateSampler turns a cumulative nanosecond busy-time counter into the number
// of cores kept busy by the work it measures.  It only remembers the previous
// sample.
type RateSampler struct {
	mu          sync.Mutex
	lastCounter uint64
	lastTime    float64
	lastRate    float64
}

// NewRateSampler returns a sampler with no prior sample.  Its first call to
// Sample always returns 0.
func NewRateSampler() *RateSampler {
	return &RateSampler{lastTime: math.Inf(1)}
}

// Sample records the counter value read at timeNow (seconds on any consistent
// basis) and returns the core-equivalent rate since the previous sample.
//
// A non-positive interval yields 0.  A counter that went backward yields the
// previously computed rate.  Either way the new sample becomes the baseline
// for the next call.
func (rs *RateSampler) Sample(counterNow uint64, timeNow float64) float64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var rate float64
	deltaT := timeNow - rs.lastTime

	if deltaT > 0 {
		diff := int64(counterNow - rs.lastCounter)
		if diff >= 0 {
			rate = float64(diff) / deltaT / nanosPerSecond
		} else {
			rate = rs.lastRate
		}
	}

	rs.lastCounter = counterNow
	rs.lastTime = timeNow
	rs.lastRate = rate

	return rate
}
