package datamove

import (
	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/ir"
)

// Direction is the kind of transfer an edge needs.
type Direction int

const (
	// DirectionNone means both endpoints share a domain, or the producer is a literal.
	DirectionNone Direction = iota
	// DirectionMoveIn stages a host value onto the accelerator.
	DirectionMoveIn
	// DirectionMoveOut brings an accelerator value back to the host.
	DirectionMoveOut
)

// String returns "none", "move-in" or "move-out".
func (d Direction) String() string {
	switch d {
	case DirectionMoveIn:
		return "move-in"
	case DirectionMoveOut:
		return "move-out"
	default:
		return "none"
	}
}

// NeedsMoveIn reports whether the edge src -> dst must be staged onto the
// accelerator. A nil src is a literal and is never staged.
func NeedsMoveIn(c *classify.Classifier, src, dst *ir.Node) bool {
	if src == nil {
		return false
	}
	return c.IsCompute(dst) && !c.IsAccelerator(src)
}

// NeedsMoveOut reports whether the edge src -> dst must be brought back to
// the host. The output node counts as a host consumer.
func NeedsMoveOut(c *classify.Classifier, src, dst *ir.Node) bool {
	return c.IsCompute(src) && !c.IsAccelerator(dst)
}

// Detect returns the transfer direction the edge src -> dst needs.
// At most one direction applies: move-in needs dst to be compute, move-out
// needs dst to be outside the accelerator domain.
func Detect(c *classify.Classifier, src, dst *ir.Node) Direction {
	switch {
	case NeedsMoveIn(c, src, dst):
		return DirectionMoveIn
	case NeedsMoveOut(c, src, dst):
		return DirectionMoveOut
	default:
		return DirectionNone
	}
}
