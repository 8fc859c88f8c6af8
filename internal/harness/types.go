package harness

import "github.com/roach88/datamove/internal/pipeline"

// Result is the outcome of running one scenario.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Modified bool `json:"modified"`
	Inserted int  `json:"inserted"`

	// Order lists each node's target in program order, or its op for
	// non-call nodes.
	Order []string `json:"order"`

	// Graph is the rewritten graph rendered one node per line.
	Graph string `json:"graph"`

	// Steps are the pipeline steps as read back from the run store.
	Steps []pipeline.Step `json:"steps"`
}

// NewResult creates a passing result for the named scenario.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Errors: []string{},
		Order:  []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
