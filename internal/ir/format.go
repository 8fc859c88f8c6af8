package ir

import (
	"strconv"
	"strings"
)

// String renders the graph one node per line in program order:
//
//	%x = placeholder
//	%add = accel.add(%x, %y)
//	return (%add)
func (g *Graph) String() string {
	var sb strings.Builder
	for _, n := range g.Nodes() {
		sb.WriteString(g.FormatNode(n))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatNode renders a single node the way String does.
func (g *Graph) FormatNode(n *Node) string {
	switch n.op {
	case OpPlaceholder:
		return "%" + n.name + " = placeholder"
	case OpGetAttr:
		return "%" + n.name + " = get_attr " + string(n.target)
	case OpOutput:
		return "return (" + g.formatArgs(n.results) + ")"
	default:
		return "%" + n.name + " = " + string(n.target) + "(" + g.formatArgs(n.args) + ")"
	}
}

// FormatArg renders one operand.
func (g *Graph) FormatArg(a Arg) string {
	switch v := a.(type) {
	case Ref:
		if p := g.nodes[NodeID(v)]; p != nil {
			return "%" + p.name
		}
		return "%<" + strconv.Itoa(int(v)) + ">"
	case Int:
		return strconv.FormatInt(int64(v), 10)
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(v))
	case Str:
		return strconv.Quote(string(v))
	case Seq:
		return "[" + g.formatArgs(v) + "]"
	case Device:
		return "device(" + string(v) + ")"
	case Layout:
		return "layout(" + string(v) + ")"
	default:
		return "<nil>"
	}
}

func (g *Graph) formatArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.FormatArg(a)
	}
	return strings.Join(parts, ", ")
}
