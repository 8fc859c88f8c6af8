package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/datamove/internal/ir"
	"github.com/roach88/datamove/internal/pipeline"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestStep creates a step with minimal required fields.
func createTestStep(runID string, seq int64, pass string) pipeline.Step {
	return pipeline.Step{
		RunID:       runID,
		Seq:         seq,
		Pass:        pass,
		HashBefore:  "before",
		HashAfter:   "after",
		Modified:    true,
		Inserted:    3,
		ToolVersion: ir.ToolVersion,
	}
}
