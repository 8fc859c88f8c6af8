package pipeline

import (
	"fmt"

	"github.com/roach88/datamove/internal/ir"
)

// Result is what a pass hands back to the pipeline.
type Result struct {
	// Graph is the graph after the pass. Passes that rewrite in place return
	// the graph they were given.
	Graph *ir.Graph

	// Modified reports whether the pass changed the graph.
	Modified bool

	// Inserted counts the edits the pass made. Its unit is pass-specific.
	Inserted int
}

// Pass is one step of a compilation pipeline.
type Pass interface {
	// Name identifies the pass in logs, spans and recorded steps.
	Name() string

	// Run transforms g. A returned error aborts the pipeline.
	Run(g *ir.Graph) (Result, error)
}

// PassError wraps a failure from a single pass.
type PassError struct {
	Pass  string
	Index int
	Err   error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %d (%s): %v", e.Index, e.Pass, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}
