package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datamove/internal/pipeline"
)

var (
	_ pipeline.Clock       = (*StepClock)(nil)
	_ pipeline.IDGenerator = FixedRunID("")
	_ pipeline.IDGenerator = (*SequentialRunIDs)(nil)
)

func TestStepClock_NextAndReset(t *testing.T) {
	clock := NewStepClock()
	assert.Equal(t, int64(0), clock.Current())

	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestStepClock_ConcurrentNextIsUnique(t *testing.T) {
	clock := NewStepClock()
	const workers, calls = 20, 50

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), clock.Current())
}

func TestFixedRunID(t *testing.T) {
	assert.Equal(t, DefaultRunID, FixedRunID("").Generate())
	assert.Equal(t, "abc", FixedRunID("abc").Generate())
	assert.Equal(t, "abc", FixedRunID("abc").Generate())
}

func TestSequentialRunIDs(t *testing.T) {
	ids := NewSequentialRunIDs("")
	assert.Equal(t, "run-1", ids.Generate())
	assert.Equal(t, "run-2", ids.Generate())

	named := NewSequentialRunIDs("ci")
	assert.Equal(t, "ci-1", named.Generate())
}
