package ir

import (
	"slices"
	"strings"
)

// NodeID is a stable arena handle. Zero is never a valid id.
type NodeID int

// OpKind distinguishes the node categories of a traced graph.
type OpKind string

const (
	// OpPlaceholder is a graph input.
	OpPlaceholder OpKind = "placeholder"

	// OpGetAttr reads a module attribute such as a weight.
	OpGetAttr OpKind = "get_attr"

	// OpCall invokes the operation named by the node's Target.
	OpCall OpKind = "call_function"

	// OpOutput terminates the graph and holds its ordered result list.
	OpOutput OpKind = "output"
)

// ValidOpKinds defines allowed op kinds.
var ValidOpKinds = map[OpKind]bool{
	OpPlaceholder: true,
	OpGetAttr:     true,
	OpCall:        true,
	OpOutput:      true,
}

// Target identifies the operation a call node invokes.
// Targets are opaque: only compared for equality and set membership.
type Target string

// Transfer primitives and the layout normalization step.
const (
	TargetFromHost   Target = "accel.from_host"   // stage a host value as accelerator data
	TargetToDevice   Target = "accel.to_device"   // bind staged data to a device
	TargetFromDevice Target = "accel.from_device" // pull a value off the device
	TargetToHost     Target = "accel.to_host"     // hand a value back to the host
	TargetToLayout   Target = "accel.to_layout"   // relayout; neither compute nor transfer
)

// TransferTargets lists the four transfer primitives.
var TransferTargets = []Target{TargetFromHost, TargetToDevice, TargetFromDevice, TargetToHost}

// IsTransfer reports whether t is one of the four transfer primitives.
func (t Target) IsTransfer() bool {
	return slices.Contains(TransferTargets, t)
}

// Base returns the last dotted segment of t. Generated node names derive from it.
func (t Target) Base() string {
	s := string(t)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "node"
	}
	return s
}

// Node is one operation in a Graph. Nodes are created only through a Builder
// and mutated only through Graph.SetOperand.
type Node struct {
	id      NodeID
	name    string
	op      OpKind
	target  Target
	args    []Arg
	results []Arg

	prev, next NodeID
}

// ID returns the node's arena handle.
func (n *Node) ID() NodeID { return n.id }

// Name returns the node's unique name.
func (n *Node) Name() string { return n.name }

// Op returns the node's kind.
func (n *Node) Op() OpKind { return n.op }

// Target returns the invoked operation. Empty for non-call nodes.
func (n *Node) Target() Target { return n.target }

// IsOutput reports whether n is the graph's output node.
func (n *Node) IsOutput() bool { return n.op == OpOutput }

// Args returns a copy of the positional arguments. Nil for the output node.
func (n *Node) Args() []Arg { return append([]Arg(nil), n.args...) }

// Results returns a copy of the output node's result list. Nil otherwise.
func (n *Node) Results() []Arg { return append([]Arg(nil), n.results...) }

// Operands returns a copy of the slots an edge index addresses:
// the result list for the output node, the positional arguments otherwise.
func (n *Node) Operands() []Arg { return append([]Arg(nil), *n.slots()...) }

// slots is the one place that branches on the output variant.
func (n *Node) slots() *[]Arg {
	if n.op == OpOutput {
		return &n.results
	}
	return &n.args
}

// Use is one edge: slot Index of node Consumer references a producer.
type Use struct {
	Consumer NodeID
	Index    int
}

// Graph is a mutable dataflow graph owned by its caller.
// It is not safe for concurrent mutation.
type Graph struct {
	nodes  map[NodeID]*Node
	names  map[string]NodeID
	users  map[NodeID][]Use
	head   NodeID
	tail   NodeID
	lastID NodeID
	output NodeID

	// suffix holds the next N to try for base_N names per base.
	suffix map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:  make(map[NodeID]*Node),
		names:  make(map[string]NodeID),
		users:  make(map[NodeID][]Use),
		suffix: make(map[string]int),
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *Node { return g.nodes[id] }

// Lookup returns the node with the given name, or nil.
func (g *Graph) Lookup(name string) *Node {
	id, ok := g.names[name]
	if !ok {
		return nil
	}
	return g.nodes[id]
}

// OutputNode returns the distinguished output node, or nil if none exists.
func (g *Graph) OutputNode() *Node { return g.nodes[g.output] }

// Resolve returns the producer a references, or nil when a is a literal.
func (g *Graph) Resolve(a Arg) *Node {
	id, ok := RefOf(a)
	if !ok {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns a snapshot of all nodes in program order.
// Nodes inserted afterwards do not appear in the returned slice.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for id := g.head; id != 0; id = g.nodes[id].next {
		out = append(out, g.nodes[id])
	}
	return out
}

// Users returns the edges that currently reference producer id.
func (g *Graph) Users(id NodeID) []Use {
	return append([]Use(nil), g.users[id]...)
}

// Operand returns slot idx of the consumer node.
func (g *Graph) Operand(consumer NodeID, idx int) (Arg, error) {
	n := g.nodes[consumer]
	if n == nil {
		return nil, graphErrorf(ErrCodeUnknownNode, "", "node %d not in graph", consumer)
	}
	slots := *n.slots()
	if idx < 0 || idx >= len(slots) {
		return nil, graphErrorf(ErrCodeSlotOutOfRange, n.name, "slot %d of %d", idx, len(slots))
	}
	return slots[idx], nil
}

// Validate checks the structural invariants the pass relies on:
// exactly one output node placed last, and every Ref pointing at an earlier
// node. Literal sequences must not hide Refs.
func (g *Graph) Validate() error {
	if g.output == 0 {
		return graphErrorf(ErrCodeNoOutput, "", "graph has no output node")
	}
	if g.tail != g.output {
		return graphErrorf(ErrCodeOutputNotLast, g.nodes[g.tail].name, "node follows the output node")
	}

	seen := make(map[NodeID]bool, len(g.nodes))
	for id := g.head; id != 0; id = g.nodes[id].next {
		n := g.nodes[id]
		for i, a := range *n.slots() {
			switch v := a.(type) {
			case nil:
				return graphErrorf(ErrCodeNilOperand, n.name, "slot %d is nil", i)
			case Ref:
				p := g.nodes[NodeID(v)]
				if p == nil {
					return graphErrorf(ErrCodeUnknownNode, n.name, "slot %d references node %d", i, v)
				}
				if !seen[p.id] {
					return graphErrorf(ErrCodeForwardReference, n.name, "slot %d references later node %s", i, p.name)
				}
			case Seq:
				if containsRef(v) {
					return graphErrorf(ErrCodeRefInSequence, n.name, "slot %d hides a node reference in a literal sequence", i)
				}
			}
		}
		seen[id] = true
	}
	return nil
}

// precedes reports whether p sits strictly before at in program order.
// Every Ref already held by at points earlier, so an existing operand and the
// immediate predecessor answer without walking the list.
func (g *Graph) precedes(p, at NodeID) bool {
	n := g.nodes[at]
	if n.prev == p {
		return p != 0
	}
	for _, a := range *n.slots() {
		if id, ok := RefOf(a); ok && id == p {
			return true
		}
	}
	for id := n.prev; id != 0; id = g.nodes[id].prev {
		if id == p {
			return true
		}
	}
	return false
}

// link places n immediately before the node before, or at the tail when before is zero.
func (g *Graph) link(n *Node, before NodeID) {
	if before == 0 {
		n.prev = g.tail
		if g.tail != 0 {
			g.nodes[g.tail].next = n.id
		} else {
			g.head = n.id
		}
		g.tail = n.id
		return
	}

	at := g.nodes[before]
	n.prev = at.prev
	n.next = before
	if at.prev != 0 {
		g.nodes[at.prev].next = n.id
	} else {
		g.head = n.id
	}
	at.prev = n.id
}

// uniqueName returns base, or base_N with the smallest free N not yet handed
// out for base. Names are never released, so the search resumes where the
// previous one for the same base stopped.
func (g *Graph) uniqueName(base string) string {
	if _, taken := g.names[base]; !taken {
		return base
	}
	i := max(g.suffix[base], 1)
	for {
		candidate := base + "_" + itoa(i)
		i++
		if _, taken := g.names[candidate]; !taken {
			g.suffix[base] = i
			return candidate
		}
	}
}

func (g *Graph) addUse(producer NodeID, u Use) {
	g.users[producer] = append(g.users[producer], u)
}

func (g *Graph) removeUse(producer NodeID, u Use) {
	uses := g.users[producer]
	for i, existing := range uses {
		if existing == u {
			g.users[producer] = append(uses[:i:i], uses[i+1:]...)
			break
		}
	}
	if len(g.users[producer]) == 0 {
		delete(g.users, producer)
	}
}
