package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time of a DeterministicClock:
// 2024-01-01T00:00:00Z.
const Epoch int64 = 1704067200000

// DeterministicClock is a thread-safe clock for tests that advances by a fixed
// step on every call to Now.
//
// It implements tree.Clock, so timestamps produced by the engine are fully
// reproducible: the first Now returns start+step, the second start+2*step.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	ms    int64
	step  int64
}

// NewDeterministicClock creates a clock starting at Epoch that advances by one
// millisecond per call.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(Epoch, 1)
}

// NewDeterministicClockAt creates a clock starting at startMs that advances by
// stepMs per call.
func NewDeterministicClockAt(startMs, stepMs int64) *DeterministicClock {
	return &DeterministicClock{start: startMs, ms: startMs, step: stepMs}
}

// Now advances the clock and returns the new time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += c.step
	return time.UnixMilli(c.ms).UTC()
}

// Current returns the last value returned by Now in epoch milliseconds,
// without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Reset rewinds the clock to its start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = c.start
}
