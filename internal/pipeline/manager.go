package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/datamove/internal/ir"
)

// TracerName is the instrumentation name for pipeline spans.
const TracerName = "github.com/roach88/datamove/internal/pipeline"

// Step records one pass execution within a run.
type Step struct {
	RunID       string `json:"run_id"`
	Seq         int64  `json:"seq"`
	Pass        string `json:"pass"`
	HashBefore  string `json:"hash_before"`
	HashAfter   string `json:"hash_after"`
	Modified    bool   `json:"modified"`
	Inserted    int    `json:"inserted"`
	Error       string `json:"error,omitempty"`
	ToolVersion string `json:"tool_version"`
}

// Recorder persists steps. store.Store implements it.
type Recorder interface {
	RecordStep(ctx context.Context, step Step) error
}

// Report summarizes a pipeline run.
type Report struct {
	RunID    string    `json:"run_id"`
	Modified bool      `json:"modified"`
	Inserted int       `json:"inserted"`
	Steps    []Step    `json:"steps"`
	Graph    *ir.Graph `json:"-"`
}

// Manager runs an ordered list of passes.
type Manager struct {
	passes   []Pass
	recorder Recorder
	ids      IDGenerator
	clock    Clock
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder records every step through r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithIDGenerator overrides the run id generator (default UUIDv7).
func WithIDGenerator(ids IDGenerator) Option {
	return func(m *Manager) { m.ids = ids }
}

// WithClock overrides the step sequence clock.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger overrides the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithTracer overrides the tracer (default otel.Tracer(TracerName)).
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// NewManager creates a Manager for passes, run in the given order.
func NewManager(passes []Pass, opts ...Option) *Manager {
	m := &Manager{
		passes: passes,
		ids:    UUIDv7Generator{},
		clock:  NewClock(),
		logger: slog.Default(),
		tracer: otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Passes returns the pass names in execution order.
func (m *Manager) Passes() []string {
	names := make([]string, len(m.passes))
	for i, p := range m.passes {
		names[i] = p.Name()
	}
	return names
}

// Run executes every pass on g in order. The first failing pass aborts the
// run; the returned error is a *PassError. The context carries spans and
// recorder calls only; passes themselves are not interruptible.
func (m *Manager) Run(ctx context.Context, g *ir.Graph) (*Report, error) {
	report := &Report{
		RunID: m.ids.Generate(),
		Graph: g,
	}

	ctx, runSpan := m.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("datamove.run_id", report.RunID),
			attribute.Int("datamove.passes", len(m.passes)),
		),
	)
	defer runSpan.End()

	m.logger.Info("pipeline starting", "run_id", report.RunID, "passes", len(m.passes), "nodes", g.Len())

	for i, p := range m.passes {
		step, next, err := m.runPass(ctx, report.RunID, i, p, report.Graph)
		report.Steps = append(report.Steps, step)

		if recErr := m.record(ctx, step); recErr != nil {
			err = errors.Join(err, recErr)
		}
		if err != nil {
			runSpan.RecordError(err)
			runSpan.SetStatus(codes.Error, "pipeline failed")
			return report, err
		}

		report.Graph = next
		report.Modified = report.Modified || step.Modified
		report.Inserted += step.Inserted
	}

	runSpan.SetAttributes(
		attribute.Bool("datamove.modified", report.Modified),
		attribute.Int("datamove.inserted", report.Inserted),
	)
	m.logger.Info("pipeline finished", "run_id", report.RunID, "modified", report.Modified, "inserted", report.Inserted)
	return report, nil
}

func (m *Manager) runPass(ctx context.Context, runID string, index int, p Pass, g *ir.Graph) (Step, *ir.Graph, error) {
	_, span := m.tracer.Start(ctx, "pass."+p.Name(),
		trace.WithAttributes(attribute.String("datamove.pass", p.Name())),
	)
	defer span.End()

	step := Step{
		RunID:       runID,
		Seq:         m.clock.Next(),
		Pass:        p.Name(),
		ToolVersion: ir.ToolVersion,
	}

	before, err := ir.GraphHash(g)
	if err != nil {
		return step, g, m.fail(span, &step, index, p, err)
	}
	step.HashBefore = before

	m.logger.Debug("pass starting", "run_id", runID, "pass", p.Name(), "seq", step.Seq)
	res, err := p.Run(g)
	if err != nil {
		return step, g, m.fail(span, &step, index, p, err)
	}

	next := res.Graph
	if next == nil {
		next = g
	}
	after, err := ir.GraphHash(next)
	if err != nil {
		return step, g, m.fail(span, &step, index, p, err)
	}

	step.HashAfter = after
	step.Modified = res.Modified
	step.Inserted = res.Inserted

	span.SetAttributes(
		attribute.Bool("datamove.modified", res.Modified),
		attribute.Int("datamove.inserted", res.Inserted),
	)
	m.logger.Info("pass finished",
		"run_id", runID,
		"pass", p.Name(),
		"modified", res.Modified,
		"inserted", res.Inserted,
	)
	return step, next, nil
}

func (m *Manager) fail(span trace.Span, step *Step, index int, p Pass, err error) error {
	perr := &PassError{Pass: p.Name(), Index: index, Err: err}
	step.Error = err.Error()
	span.RecordError(err)
	span.SetStatus(codes.Error, "pass failed")
	m.logger.Error("pass failed", "run_id", step.RunID, "pass", p.Name(), "error", err)
	return perr
}

func (m *Manager) record(ctx context.Context, step Step) error {
	if m.recorder == nil {
		return nil
	}
	if err := m.recorder.RecordStep(ctx, step); err != nil {
		m.logger.Error("recording step failed", "run_id", step.RunID, "pass", step.Pass, "error", err)
		return fmt.Errorf("record step %d: %w", step.Seq, err)
	}
	return nil
}
