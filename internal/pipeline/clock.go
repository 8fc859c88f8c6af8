package pipeline

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock stamps recorded steps with strictly increasing sequence numbers.
type Clock interface {
	Next() int64
}

// SeqClock is a monotonic logical clock. Safe for concurrent use.
type SeqClock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *SeqClock {
	return &SeqClock{}
}

// NewClockAt creates a clock that continues after start.
// Used to resume numbering from the last step in a store.
func NewClockAt(start int64) *SeqClock {
	c := &SeqClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7. Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
