package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/datamove/internal/datamove"
	"github.com/roach88/datamove/internal/graphfile"
	"github.com/roach88/datamove/internal/pipeline"
	"github.com/roach88/datamove/internal/profile"
	"github.com/roach88/datamove/internal/store"
	"github.com/roach88/datamove/internal/testutil"
)

// Run executes a scenario and returns its result.
//
// Each scenario runs in a fresh in-memory store with a fixed run id and a new
// step clock. The returned error covers setup problems (unreadable graph or
// profile); failed expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	g, err := graphfile.Load(scenario.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	prof, err := profile.Resolve(scenario.ProfileDir, scenario.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pass, err := datamove.New(prof, datamove.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	mgr := pipeline.NewManager([]pipeline.Pass{pass},
		pipeline.WithRecorder(st),
		pipeline.WithIDGenerator(testutil.FixedRunID(scenario.RunID)),
		pipeline.WithClock(testutil.NewStepClock()),
		pipeline.WithLogger(logger),
	)

	result := NewResult(scenario.Name)
	report, runErr := mgr.Run(ctx, g)

	if runErr != nil {
		result.AddError(fmt.Sprintf("run failed: %v", runErr))
	}

	result.Modified = report.Modified
	result.Inserted = report.Inserted
	result.Order = Order(report.Graph)
	result.Graph = report.Graph.String()

	steps, err := st.StepsForRun(ctx, report.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded steps: %w", err)
	}
	result.Steps = steps
	if len(steps) != len(report.Steps) {
		result.AddError(fmt.Sprintf("store recorded %d steps, run reported %d", len(steps), len(report.Steps)))
	}

	if runErr != nil {
		return result, nil
	}

	checkExpect(scenario.Expect, result)
	for _, msg := range EvaluateAssertions(scenario.Assertions, &AssertionContext{
		Graph:      report.Graph,
		Classifier: pass.Classifier(),
	}) {
		result.AddError(msg)
	}
	return result, nil
}

func checkExpect(e Expect, r *Result) {
	if e.Modified != nil && *e.Modified != r.Modified {
		r.AddError(fmt.Sprintf("modified: expected %v, got %v", *e.Modified, r.Modified))
	}
	if e.Inserted != nil && *e.Inserted != r.Inserted {
		r.AddError(fmt.Sprintf("inserted: expected %d, got %d", *e.Inserted, r.Inserted))
	}
	if len(e.Order) > 0 && !slices.Equal(e.Order, r.Order) {
		r.AddError(fmt.Sprintf("order: expected %v, got %v", e.Order, r.Order))
	}
}
