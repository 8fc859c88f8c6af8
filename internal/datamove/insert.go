package datamove

import (
	"github.com/roach88/datamove/internal/ir"
)

// TryMoveIn stages src onto the accelerator for slot idx of dst when the edge
// crosses into the accelerator domain. It reports whether it inserted nodes.
func (p *Pass) TryMoveIn(g *ir.Graph, src ir.Arg, idx int, dst *ir.Node) (bool, error) {
	producer := g.Resolve(src)
	if !NeedsMoveIn(p.classifier, producer, dst) {
		return false, nil
	}

	chain := []chainStep{
		{target: ir.TargetFromHost},
		{target: ir.TargetToDevice, extra: []ir.Arg{p.device}},
	}
	last, err := splice(g, producer, idx, dst, chain)
	if err != nil {
		return false, err
	}

	p.logger.Debug("inserted transfer",
		"direction", DirectionMoveIn.String(),
		"producer", producer.Name(),
		"consumer", dst.Name(),
		"slot", idx,
		"node", last.Name(),
	)
	return true, nil
}

// TryMoveOut brings src back to the host, normalized to row-major layout, for
// slot idx of dst when the edge leaves the accelerator domain. It reports
// whether it inserted nodes.
func (p *Pass) TryMoveOut(g *ir.Graph, src ir.Arg, idx int, dst *ir.Node) (bool, error) {
	producer := g.Resolve(src)
	if !NeedsMoveOut(p.classifier, producer, dst) {
		return false, nil
	}

	chain := []chainStep{
		{target: ir.TargetFromDevice},
		{target: ir.TargetToLayout, extra: []ir.Arg{p.rowMajor}},
		{target: ir.TargetToHost},
	}
	last, err := splice(g, producer, idx, dst, chain)
	if err != nil {
		return false, err
	}

	p.logger.Debug("inserted transfer",
		"direction", DirectionMoveOut.String(),
		"producer", producer.Name(),
		"consumer", dst.Name(),
		"slot", idx,
		"node", last.Name(),
	)
	return true, nil
}

// chainStep is one synthesized call. Its first argument is the previous node
// in the chain (the producer for the first step), followed by extra.
type chainStep struct {
	target ir.Target
	extra  []ir.Arg
}

// splice inserts chain immediately before dst and points slot idx of dst at
// the last node. The slot is checked before anything is created, so a
// failure leaves the graph untouched.
func splice(g *ir.Graph, producer *ir.Node, idx int, dst *ir.Node, chain []chainStep) (*ir.Node, error) {
	if _, err := g.Operand(dst.ID(), idx); err != nil {
		return nil, err
	}

	prev := producer
	err := g.InsertBefore(dst.ID(), func(b *ir.Builder) error {
		for _, step := range chain {
			args := append([]ir.Arg{ir.Ref(prev.ID())}, step.extra...)
			n, err := b.Call(step.target, args...)
			if err != nil {
				return err
			}
			prev = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := g.SetOperand(dst.ID(), idx, ir.Ref(prev.ID())); err != nil {
		return nil, err
	}
	return prev, nil
}
