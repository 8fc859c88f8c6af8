package testutil

import (
	"fmt"
	"sync"
)

// FixedRunID always returns the same run id.
// Golden output that embeds run ids stays byte-identical across runs.
type FixedRunID string

// DefaultRunID is used when a scenario does not pin its own run id.
const DefaultRunID = "test-run-00000000-0000-0000-0000-000000000001"

// Generate implements pipeline.IDGenerator.
func (id FixedRunID) Generate() string {
	if id == "" {
		return DefaultRunID
	}
	return string(id)
}

// SequentialRunIDs hands out "<prefix>-1", "<prefix>-2", and so on.
// Useful when a test drives several runs into one store.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDs creates a generator. An empty prefix becomes "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate implements pipeline.IDGenerator.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
