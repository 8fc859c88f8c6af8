package testutil

import "sync"

// StepClock is a resettable pipeline.Clock for tests.
// The same scenario run twice against a reset clock records identical
// step sequence numbers.
type StepClock struct {
	mu  sync.Mutex
	seq int64
}

// NewStepClock returns a clock whose first Next returns 1.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Next advances the clock and returns the new sequence number.
func (c *StepClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out, or 0 before the first Next.
func (c *StepClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
