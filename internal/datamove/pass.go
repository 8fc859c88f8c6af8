package datamove

import (
	"fmt"
	"log/slog"

	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/ir"
	"github.com/roach88/datamove/internal/pipeline"
)

// PassName identifies the pass in pipelines and recorded runs.
const PassName = "add_data_move"

// Pass inserts transfer nodes on every host/accelerator boundary edge.
// It implements pipeline.Pass.
type Pass struct {
	classifier *classify.Classifier
	device     ir.Device
	rowMajor   ir.Layout
	verify     bool
	logger     *slog.Logger
}

var _ pipeline.Pass = (*Pass)(nil)

// Option configures a Pass.
type Option func(*Pass)

// WithLogger overrides the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pass) { p.logger = l }
}

// WithoutVerify skips the post-sweep completeness check.
func WithoutVerify() Option {
	return func(p *Pass) { p.verify = false }
}

// New creates a Pass for the given accelerator profile.
func New(profile *classify.Profile, opts ...Option) (*Pass, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	p := &Pass{
		classifier: profile.Classifier(),
		device:     profile.Device,
		rowMajor:   profile.RowMajor,
		verify:     true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements pipeline.Pass.
func (p *Pass) Name() string { return PassName }

// Classifier returns the classifier the pass decides with.
func (p *Pass) Classifier() *classify.Classifier { return p.classifier }

// Run sweeps a snapshot of g's nodes once and converts every boundary edge in
// place. Result.Inserted counts converted edges; Result.Modified is true when
// at least one edge was converted.
//
// Run fails fast on a graph without an output node or with forward
// references, and, unless verification is disabled, when a boundary edge
// survives the sweep.
func (p *Pass) Run(g *ir.Graph) (pipeline.Result, error) {
	result := pipeline.Result{Graph: g}
	if err := g.Validate(); err != nil {
		return result, fmt.Errorf("%s: %w", PassName, err)
	}

	inserted := 0
	for _, n := range g.Nodes() {
		for idx, arg := range n.Operands() {
			if ir.IsLiteral(arg) {
				continue
			}
			ok, err := p.TryMoveIn(g, arg, idx, n)
			if err != nil {
				return result, fmt.Errorf("%s: move-in %s[%d]: %w", PassName, n.Name(), idx, err)
			}
			if ok {
				inserted++
			}

			ok, err = p.TryMoveOut(g, arg, idx, n)
			if err != nil {
				return result, fmt.Errorf("%s: move-out %s[%d]: %w", PassName, n.Name(), idx, err)
			}
			if ok {
				inserted++
			}
		}
	}

	result.Inserted = inserted
	result.Modified = inserted > 0

	if p.verify {
		if err := g.Validate(); err != nil {
			return result, fmt.Errorf("%s: rewritten graph: %w", PassName, err)
		}
		if remaining := Check(p.classifier, g); len(remaining) > 0 {
			return result, &BoundaryError{Boundaries: remaining}
		}
	}

	p.logger.Info("data move pass finished", "inserted", inserted, "nodes", g.Len())
	return result, nil
}
