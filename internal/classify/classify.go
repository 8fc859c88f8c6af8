package classify

import "github.com/roach88/datamove/internal/ir"

// Class is the execution domain of a node or operand.
type Class int

const (
	// ClassLiteral is an inline value, never wrapped in transfers.
	ClassLiteral Class = iota
	// ClassHost is ordinary work: inputs, attributes, and unknown targets.
	ClassHost
	// ClassCompute is an allow-listed accelerator operation.
	ClassCompute
	// ClassTransfer is one of the four transfer primitives.
	ClassTransfer
)

// String returns the lower-case class name used in reports.
func (c Class) String() string {
	switch c {
	case ClassLiteral:
		return "literal"
	case ClassHost:
		return "host"
	case ClassCompute:
		return "compute"
	case ClassTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Classifier answers domain questions for a fixed compute allow-list.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	compute map[ir.Target]struct{}
}

// New returns a Classifier for the given compute targets.
// Transfer targets are never treated as compute even if listed;
// Profile.Validate rejects such lists before they get here.
func New(computeOps []ir.Target) *Classifier {
	compute := make(map[ir.Target]struct{}, len(computeOps))
	for _, t := range computeOps {
		if t.IsTransfer() {
			continue
		}
		compute[t] = struct{}{}
	}
	return &Classifier{compute: compute}
}

// ComputeOps returns the number of allow-listed targets.
func (c *Classifier) ComputeOps() int { return len(c.compute) }

// IsCall reports whether n is a node invoking an operation.
// A nil node stands for a literal operand.
func (c *Classifier) IsCall(n *ir.Node) bool {
	return n != nil && n.Op() == ir.OpCall
}

// IsCompute reports whether n is an allow-listed accelerator operation.
func (c *Classifier) IsCompute(n *ir.Node) bool {
	if !c.IsCall(n) {
		return false
	}
	_, ok := c.compute[n.Target()]
	return ok
}

// IsTransfer reports whether n is one of the four transfer primitives.
func (c *Classifier) IsTransfer(n *ir.Node) bool {
	return c.IsCall(n) && n.Target().IsTransfer()
}

// IsAccelerator reports whether n runs in the accelerator domain.
func (c *Classifier) IsAccelerator(n *ir.Node) bool {
	return c.IsCompute(n) || c.IsTransfer(n)
}

// Classify returns the class of n. Unknown targets fall through to host.
func (c *Classifier) Classify(n *ir.Node) Class {
	switch {
	case n == nil:
		return ClassLiteral
	case c.IsCompute(n):
		return ClassCompute
	case c.IsTransfer(n):
		return ClassTransfer
	default:
		return ClassHost
	}
}
