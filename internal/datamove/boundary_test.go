package datamove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/ir"
)

// kindGraph holds one node of every domain so predicates can be tested pairwise.
type kindGraph struct {
	host, compute, transfer, layout, output *ir.Node
}

func buildKindGraph(t *testing.T) kindGraph {
	t.Helper()
	g := ir.New()
	b := g.Append()
	host, err := b.Placeholder("x")
	require.NoError(t, err)
	compute, err := b.Call("accel.add", ir.Ref(host.ID()), ir.Ref(host.ID()))
	require.NoError(t, err)
	transfer, err := b.Call(ir.TargetFromDevice, ir.Ref(compute.ID()))
	require.NoError(t, err)
	layout, err := b.Call(ir.TargetToLayout, ir.Ref(transfer.ID()), ir.Layout("RM"))
	require.NoError(t, err)
	output, err := b.Output(ir.Ref(layout.ID()))
	require.NoError(t, err)
	return kindGraph{host: host, compute: compute, transfer: transfer, layout: layout, output: output}
}

func TestNeedsMoveIn(t *testing.T) {
	k := buildKindGraph(t)
	c := classify.DefaultProfile().Classifier()

	tests := []struct {
		name     string
		src, dst *ir.Node
		want     bool
	}{
		{"literal into compute", nil, k.compute, false},
		{"host into compute", k.host, k.compute, true},
		{"layout into compute", k.layout, k.compute, true},
		{"compute into compute", k.compute, k.compute, false},
		{"transfer into compute", k.transfer, k.compute, false},
		{"host into host", k.host, k.layout, false},
		{"host into transfer", k.host, k.transfer, false},
		{"host into output", k.host, k.output, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsMoveIn(c, tt.src, tt.dst))
		})
	}
}

func TestNeedsMoveOut(t *testing.T) {
	k := buildKindGraph(t)
	c := classify.DefaultProfile().Classifier()

	tests := []struct {
		name     string
		src, dst *ir.Node
		want     bool
	}{
		{"literal into host", nil, k.layout, false},
		{"compute into output", k.compute, k.output, true},
		{"compute into host", k.compute, k.layout, true},
		{"compute into compute", k.compute, k.compute, false},
		{"compute into transfer", k.compute, k.transfer, false},
		{"transfer into host", k.transfer, k.layout, false},
		{"host into output", k.host, k.output, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsMoveOut(c, tt.src, tt.dst))
		})
	}
}

func TestDetect_NeverBothDirections(t *testing.T) {
	k := buildKindGraph(t)
	c := classify.DefaultProfile().Classifier()
	nodes := []*ir.Node{nil, k.host, k.compute, k.transfer, k.layout, k.output}

	for _, src := range nodes {
		for _, dst := range nodes[1:] {
			in := NeedsMoveIn(c, src, dst)
			out := NeedsMoveOut(c, src, dst)
			assert.False(t, in && out, "both directions for %v -> %v", src, dst)

			want := DirectionNone
			if in {
				want = DirectionMoveIn
			} else if out {
				want = DirectionMoveOut
			}
			assert.Equal(t, want, Detect(c, src, dst))
		}
	}
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "none", DirectionNone.String())
	assert.Equal(t, "move-in", DirectionMoveIn.String())
	assert.Equal(t, "move-out", DirectionMoveOut.String())
}
