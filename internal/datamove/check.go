package datamove

import (
	"fmt"
	"strings"

	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/ir"
)

// Boundary is an edge that still needs a transfer.
type Boundary struct {
	Producer  string    `json:"producer"`
	Consumer  string    `json:"consumer"`
	Index     int       `json:"index"`
	Direction Direction `json:"-"`
}

// String renders the edge as "producer -> consumer[index] (direction)".
func (b Boundary) String() string {
	return fmt.Sprintf("%s -> %s[%d] (%s)", b.Producer, b.Consumer, b.Index, b.Direction)
}

// Check returns every edge of g that still crosses a domain boundary, in
// program order. An empty result means the graph is complete.
func Check(c *classify.Classifier, g *ir.Graph) []Boundary {
	var out []Boundary
	for _, n := range g.Nodes() {
		for idx, a := range n.Operands() {
			src := g.Resolve(a)
			if d := Detect(c, src, n); d != DirectionNone {
				out = append(out, Boundary{
					Producer:  src.Name(),
					Consumer:  n.Name(),
					Index:     idx,
					Direction: d,
				})
			}
		}
	}
	return out
}

// BoundaryError reports edges left unconverted after a sweep.
type BoundaryError struct {
	Boundaries []Boundary
}

func (e *BoundaryError) Error() string {
	parts := make([]string, len(e.Boundaries))
	for i, b := range e.Boundaries {
		parts[i] = b.String()
	}
	return fmt.Sprintf("%d boundary edge(s) left unconverted: %s", len(e.Boundaries), strings.Join(parts, ", "))
}

// ClassCounts tallies g's nodes by execution domain.
func ClassCounts(c *classify.Classifier, g *ir.Graph) map[classify.Class]int {
	counts := make(map[classify.Class]int)
	for _, n := range g.Nodes() {
		counts[c.Classify(n)]++
	}
	return counts
}
