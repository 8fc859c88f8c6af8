package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/datamove"
	"github.com/roach88/datamove/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It carries the rendered graph to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Graph    string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Graph != "" {
		fmt.Fprintf(&buf, "\nGraph:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Graph, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// AssertionContext is what assertions evaluate against.
type AssertionContext struct {
	Graph      *ir.Graph
	Classifier *classify.Classifier
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTargetCount:
			err = assertTargetCount(actx.Graph, a)
		case AssertTargetOrder:
			err = assertTargetOrder(actx.Graph, a)
		case AssertContainsLine:
			err = assertContainsLine(actx.Graph, a)
		case AssertOutputTarget:
			err = assertOutputTarget(actx.Graph, a)
		case AssertComplete:
			err = assertComplete(actx.Graph, actx.Classifier)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

// assertTargetCount checks the number of call nodes with the given target.
func assertTargetCount(g *ir.Graph, a Assertion) error {
	count := 0
	for _, n := range g.Nodes() {
		if n.Op() == ir.OpCall && string(n.Target()) == a.Target {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTargetCount,
			Expected: fmt.Sprintf("%d calls to %s", a.Count, a.Target),
			Actual:   fmt.Sprintf("%d calls", count),
			Graph:    g.String(),
		}
	}
	return nil
}

// assertTargetOrder checks that the first occurrence of each target appears
// in the given order. Other nodes may sit in between.
func assertTargetOrder(g *ir.Graph, a Assertion) error {
	order := Order(g)
	positions := make(map[string]int)
	for i, t := range order {
		if _, seen := positions[t]; !seen {
			positions[t] = i + 1
		}
	}

	for _, t := range a.Targets {
		if positions[t] == 0 {
			return &AssertionError{
				Type:     AssertTargetOrder,
				Expected: fmt.Sprintf("all targets present: %v", a.Targets),
				Actual:   fmt.Sprintf("missing target: %s", t),
				Graph:    g.String(),
			}
		}
	}
	for i := 1; i < len(a.Targets); i++ {
		prev, curr := a.Targets[i-1], a.Targets[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTargetOrder,
				Expected: fmt.Sprintf("targets in order: %v", a.Targets),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Graph: g.String(),
			}
		}
	}
	return nil
}

func assertContainsLine(g *ir.Graph, a Assertion) error {
	for _, n := range g.Nodes() {
		if g.FormatNode(n) == a.Line {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertContainsLine,
		Expected: a.Line,
		Actual:   "no such node",
		Graph:    g.String(),
	}
}

func assertOutputTarget(g *ir.Graph, a Assertion) error {
	results := g.OutputNode().Results()
	if a.Index >= len(results) {
		return &AssertionError{
			Type:     AssertOutputTarget,
			Expected: fmt.Sprintf("output position %d", a.Index),
			Actual:   fmt.Sprintf("%d results", len(results)),
			Graph:    g.String(),
		}
	}
	producer := g.Resolve(results[a.Index])
	actual := "literal"
	if producer != nil {
		actual = orderKey(producer)
	}
	if actual != a.Target {
		return &AssertionError{
			Type:     AssertOutputTarget,
			Expected: fmt.Sprintf("output %d produced by %s", a.Index, a.Target),
			Actual:   actual,
			Graph:    g.String(),
		}
	}
	return nil
}

func assertComplete(g *ir.Graph, c *classify.Classifier) error {
	remaining := datamove.Check(c, g)
	if len(remaining) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertComplete,
		Expected: "no boundary edges",
		Actual:   (&datamove.BoundaryError{Boundaries: remaining}).Error(),
		Graph:    g.String(),
	}
}

// Order lists each node's target in program order, using the op kind for
// nodes that are not calls.
func Order(g *ir.Graph) []string {
	nodes := g.Nodes()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = orderKey(n)
	}
	return out
}

func orderKey(n *ir.Node) string {
	if n.Op() == ir.OpCall {
		return string(n.Target())
	}
	return string(n.Op())
}
