package ir

import "strconv"

// Builder creates nodes at a fixed insertion point.
// A Builder from Graph.Append adds at the tail; one handed out by
// Graph.InsertBefore places every node immediately before its reference node,
// so successive calls keep their creation order.
type Builder struct {
	g      *Graph
	before NodeID // zero appends at the tail
}

// Append returns a Builder that adds nodes at the end of the graph.
func (g *Graph) Append() *Builder {
	return &Builder{g: g}
}

// InsertBefore runs fn with a Builder positioned immediately before ref.
// A node created by fn may only reference nodes that precede ref, including
// nodes fn created earlier.
func (g *Graph) InsertBefore(ref NodeID, fn func(b *Builder) error) error {
	if g.nodes[ref] == nil {
		return graphErrorf(ErrCodeUnknownNode, "", "insertion point %d not in graph", ref)
	}
	return fn(&Builder{g: g, before: ref})
}

// SetOperand rewrites slot idx of consumer to a, keeping the users index in
// step. For the output node idx addresses a position in the result list; the
// list keeps its length.
func (g *Graph) SetOperand(consumer NodeID, idx int, a Arg) error {
	n := g.nodes[consumer]
	if n == nil {
		return graphErrorf(ErrCodeUnknownNode, "", "node %d not in graph", consumer)
	}
	slots := n.slots()
	if idx < 0 || idx >= len(*slots) {
		return graphErrorf(ErrCodeSlotOutOfRange, n.name, "slot %d of %d", idx, len(*slots))
	}
	if err := g.checkOperandAt(a, consumer, n.name); err != nil {
		return err
	}

	u := Use{Consumer: consumer, Index: idx}
	if old, ok := RefOf((*slots)[idx]); ok {
		g.removeUse(old, u)
	}
	(*slots)[idx] = a
	if p, ok := RefOf(a); ok {
		g.addUse(p, u)
	}
	return nil
}

// Placeholder adds a graph input with the given name.
func (b *Builder) Placeholder(name string) (*Node, error) {
	return b.add(name, OpPlaceholder, "", nil)
}

// GetAttr adds an attribute read with the given name.
func (b *Builder) GetAttr(name string, target Target) (*Node, error) {
	return b.add(name, OpGetAttr, target, nil)
}

// Call adds a call node named after its target.
func (b *Builder) Call(target Target, args ...Arg) (*Node, error) {
	return b.add("", OpCall, target, args)
}

// CallNamed adds a call node with an explicit name.
func (b *Builder) CallNamed(name string, target Target, args ...Arg) (*Node, error) {
	return b.add(name, OpCall, target, args)
}

// Output adds the graph's output node with the given result list.
func (b *Builder) Output(results ...Arg) (*Node, error) {
	if b.g.output != 0 {
		return nil, graphErrorf(ErrCodeDuplicateOutput, b.g.nodes[b.g.output].name, "graph already has an output node")
	}
	if b.before != 0 {
		return nil, graphErrorf(ErrCodeOutputNotLast, "", "output node must be appended")
	}
	if results == nil {
		results = []Arg{}
	}
	return b.add("", OpOutput, "", results)
}

func (b *Builder) add(name string, op OpKind, target Target, operands []Arg) (*Node, error) {
	g := b.g
	if b.before == 0 && g.output != 0 {
		return nil, graphErrorf(ErrCodeOutputNotLast, name, "cannot append after the output node")
	}

	if name == "" {
		name = g.uniqueName(defaultBase(op, target))
	} else if _, taken := g.names[name]; taken {
		return nil, graphErrorf(ErrCodeDuplicateName, name, "name already in use")
	}

	for i, a := range operands {
		if err := g.checkOperandAt(a, b.before, name); err != nil {
			return nil, wrapSlot(err, i)
		}
	}

	g.lastID++
	n := &Node{
		id:     g.lastID,
		name:   name,
		op:     op,
		target: target,
	}
	*n.slots() = append([]Arg(nil), operands...)
	if op == OpOutput && n.results == nil {
		n.results = []Arg{}
	}

	g.nodes[n.id] = n
	g.names[name] = n.id
	g.link(n, b.before)
	for i, a := range operands {
		if p, ok := RefOf(a); ok {
			g.addUse(p, Use{Consumer: n.id, Index: i})
		}
	}
	if op == OpOutput {
		g.output = n.id
	}
	return n, nil
}

// checkOperandAt validates a for a node placed immediately before at
// (or at the tail when at is zero).
func (g *Graph) checkOperandAt(a Arg, at NodeID, consumerName string) error {
	switch v := a.(type) {
	case nil:
		return graphErrorf(ErrCodeNilOperand, consumerName, "operand is nil")
	case Ref:
		p := g.nodes[NodeID(v)]
		if p == nil {
			return graphErrorf(ErrCodeUnknownNode, consumerName, "operand references node %d", v)
		}
		if p.op == OpOutput {
			return graphErrorf(ErrCodeForwardReference, consumerName, "the output node cannot be consumed")
		}
		if at != 0 && !g.precedes(p.id, at) {
			return graphErrorf(ErrCodeForwardReference, consumerName, "operand %s does not precede the insertion point", p.name)
		}
	case Seq:
		if containsRef(v) {
			return graphErrorf(ErrCodeRefInSequence, consumerName, "literal sequence hides a node reference")
		}
	}
	return nil
}

func wrapSlot(err error, idx int) error {
	if ge, ok := err.(*GraphError); ok {
		return &GraphError{
			Code:    ge.Code,
			Message: "slot " + itoa(idx) + ": " + ge.Message,
			Node:    ge.Node,
		}
	}
	return err
}

func defaultBase(op OpKind, target Target) string {
	switch op {
	case OpOutput:
		return "output"
	case OpPlaceholder:
		return "arg"
	default:
		return target.Base()
	}
}

func itoa(i int) string { return strconv.Itoa(i) }
