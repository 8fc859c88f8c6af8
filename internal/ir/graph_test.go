package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAddGraph builds: x, y -> accel.add -> output.
func buildAddGraph(t *testing.T) (*Graph, *Node, *Node, *Node) {
	t.Helper()
	g := New()
	b := g.Append()
	x, err := b.Placeholder("x")
	require.NoError(t, err)
	y, err := b.Placeholder("y")
	require.NoError(t, err)
	add, err := b.Call("accel.add", Ref(x.ID()), Ref(y.ID()))
	require.NoError(t, err)
	_, err = b.Output(Ref(add.ID()))
	require.NoError(t, err)
	return g, x, y, add
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func TestGraph_AppendOrderAndUsers(t *testing.T) {
	g, x, y, add := buildAddGraph(t)

	assert.Equal(t, []string{"x", "y", "add", "output"}, names(g.Nodes()))
	assert.Equal(t, []Use{{Consumer: add.ID(), Index: 0}}, g.Users(x.ID()))
	assert.Equal(t, []Use{{Consumer: add.ID(), Index: 1}}, g.Users(y.ID()))
	assert.Equal(t, []Use{{Consumer: g.OutputNode().ID(), Index: 0}}, g.Users(add.ID()))
	assert.NoError(t, g.Validate())
}

func TestGraph_OutputIsDistinctVariant(t *testing.T) {
	g, _, _, add := buildAddGraph(t)

	out := g.OutputNode()
	require.NotNil(t, out)
	assert.True(t, out.IsOutput())
	assert.Nil(t, out.Args())
	assert.Equal(t, []Arg{Ref(add.ID())}, out.Results())
	assert.Equal(t, []Arg{Ref(add.ID())}, out.Operands())
}

func TestGraph_GeneratedNamesAreUnique(t *testing.T) {
	g := New()
	b := g.Append()
	x, err := b.Placeholder("x")
	require.NoError(t, err)
	a1, err := b.Call("accel.add", Ref(x.ID()), Ref(x.ID()))
	require.NoError(t, err)
	a2, err := b.Call("accel.add", Ref(a1.ID()), Ref(x.ID()))
	require.NoError(t, err)
	a3, err := b.Call("accel.add", Ref(a2.ID()), Int(1))
	require.NoError(t, err)

	assert.Equal(t, "add", a1.Name())
	assert.Equal(t, "add_1", a2.Name())
	assert.Equal(t, "add_2", a3.Name())
	assert.Equal(t, a2, g.Lookup("add_1"))
}

func TestGraph_GeneratedNamesSkipExplicitNames(t *testing.T) {
	g := New()
	b := g.Append()
	x, err := b.Placeholder("x")
	require.NoError(t, err)
	_, err = b.Placeholder("tanh_1")
	require.NoError(t, err)
	_, err = b.Placeholder("tanh_3")
	require.NoError(t, err)

	var got []string
	for i := 0; i < 4; i++ {
		n, err := b.Call("accel.tanh", Ref(x.ID()))
		require.NoError(t, err)
		got = append(got, n.Name())
	}
	assert.Equal(t, []string{"tanh", "tanh_2", "tanh_4", "tanh_5"}, got)

	_, err = b.CallNamed("tanh_6", "accel.tanh", Ref(x.ID()))
	require.NoError(t, err)
	n, err := b.Call("accel.tanh", Ref(x.ID()))
	require.NoError(t, err)
	assert.Equal(t, "tanh_7", n.Name())
}

func TestGraph_GeneratedNamesManyOfOneBase(t *testing.T) {
	g := New()
	b := g.Append()
	x, err := b.Placeholder("x")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		n, err := b.Call("accel.tanh", Ref(x.ID()))
		require.NoError(t, err)
		assert.False(t, seen[n.Name()], "duplicate name %s", n.Name())
		seen[n.Name()] = true
		if i == 499 {
			assert.Equal(t, "tanh_499", n.Name())
		}
	}
}

func TestGraph_DuplicateExplicitName(t *testing.T) {
	g := New()
	b := g.Append()
	_, err := b.Placeholder("x")
	require.NoError(t, err)
	_, err = b.Placeholder("x")
	assert.True(t, IsGraphError(err, ErrCodeDuplicateName))
}

func TestGraph_SecondOutputRejected(t *testing.T) {
	g, _, _, _ := buildAddGraph(t)
	_, err := g.Append().Output()
	assert.True(t, IsGraphError(err, ErrCodeDuplicateOutput))
}

func TestGraph_AppendAfterOutputRejected(t *testing.T) {
	g, x, _, _ := buildAddGraph(t)
	_, err := g.Append().Call("accel.tanh", Ref(x.ID()))
	assert.True(t, IsGraphError(err, ErrCodeOutputNotLast))
}

func TestGraph_OperandChecks(t *testing.T) {
	g := New()
	b := g.Append()
	x, err := b.Placeholder("x")
	require.NoError(t, err)

	_, err = b.Call("accel.add", Ref(99))
	assert.True(t, IsGraphError(err, ErrCodeUnknownNode))

	_, err = b.Call("accel.reshape", Ref(x.ID()), Seq{Int(2), Ref(x.ID())})
	assert.True(t, IsGraphError(err, ErrCodeRefInSequence))

	_, err = b.Call("accel.add", nil)
	assert.True(t, IsGraphError(err, ErrCodeNilOperand))

	n, err := b.Call("accel.reshape", Ref(x.ID()), Seq{Int(2), Seq{Int(3), Float(0.5)}})
	require.NoError(t, err)
	assert.Equal(t, []Use{{Consumer: n.ID(), Index: 0}}, g.Users(x.ID()))
}

func TestGraph_ValidateNoOutput(t *testing.T) {
	g := New()
	_, err := g.Append().Placeholder("x")
	require.NoError(t, err)

	err = g.Validate()
	assert.True(t, IsGraphError(err, ErrCodeNoOutput))
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestGraph_InsertBeforeKeepsCreationOrder(t *testing.T) {
	g, x, _, add := buildAddGraph(t)

	err := g.InsertBefore(add.ID(), func(b *Builder) error {
		first, err := b.Call(TargetFromHost, Ref(x.ID()))
		if err != nil {
			return err
		}
		_, err = b.Call(TargetToDevice, Ref(first.ID()), Device("dev0"))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "from_host", "to_device", "add", "output"}, names(g.Nodes()))
	assert.NoError(t, g.Validate())
}

func TestGraph_InsertBeforeRejectsLaterProducer(t *testing.T) {
	g, x, _, add := buildAddGraph(t)

	err := g.InsertBefore(x.ID(), func(b *Builder) error {
		_, err := b.Call("accel.tanh", Ref(add.ID()))
		return err
	})
	assert.True(t, IsGraphError(err, ErrCodeForwardReference))
	assert.Equal(t, 4, g.Len())
}

func TestGraph_InsertBeforeOrderChecks(t *testing.T) {
	g, x, y, add := buildAddGraph(t)

	err := g.InsertBefore(add.ID(), func(b *Builder) error {
		_, err := b.Call("accel.tanh", Ref(add.ID()))
		return err
	})
	assert.True(t, IsGraphError(err, ErrCodeForwardReference), "a node cannot reference its insertion point")

	err = g.InsertBefore(add.ID(), func(b *Builder) error {
		_, err := b.Call("accel.tanh", Ref(g.OutputNode().ID()))
		return err
	})
	assert.True(t, IsGraphError(err, ErrCodeForwardReference))
	assert.Equal(t, 4, g.Len())

	err = g.InsertBefore(add.ID(), func(b *Builder) error {
		// x is an operand of add, y sits immediately before it.
		if _, err := b.Call("accel.tanh", Ref(x.ID())); err != nil {
			return err
		}
		_, err := b.Call("accel.tanh", Ref(y.ID()))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "tanh", "tanh_1", "add", "output"}, names(g.Nodes()))
	assert.NoError(t, g.Validate())
}

func TestGraph_InsertBeforeUnknownNode(t *testing.T) {
	g, _, _, _ := buildAddGraph(t)
	err := g.InsertBefore(42, func(b *Builder) error { return nil })
	assert.True(t, IsGraphError(err, ErrCodeUnknownNode))
}

func TestGraph_SetOperandUpdatesUsers(t *testing.T) {
	g, x, y, add := buildAddGraph(t)

	require.NoError(t, g.SetOperand(add.ID(), 1, Ref(x.ID())))

	assert.Empty(t, g.Users(y.ID()))
	assert.Equal(t, []Use{
		{Consumer: add.ID(), Index: 0},
		{Consumer: add.ID(), Index: 1},
	}, g.Users(x.ID()))

	require.NoError(t, g.SetOperand(add.ID(), 0, Int(3)))
	assert.Equal(t, []Use{{Consumer: add.ID(), Index: 1}}, g.Users(x.ID()))
}

func TestGraph_SetOperandOnOutputKeepsLength(t *testing.T) {
	g := New()
	b := g.Append()
	x, err := b.Placeholder("x")
	require.NoError(t, err)
	y, err := b.Placeholder("y")
	require.NoError(t, err)
	out, err := b.Output(Ref(x.ID()), Ref(y.ID()), Int(7))
	require.NoError(t, err)

	require.NoError(t, g.SetOperand(out.ID(), 1, Ref(x.ID())))

	assert.Equal(t, []Arg{Ref(x.ID()), Ref(x.ID()), Int(7)}, out.Results())
	assert.Empty(t, g.Users(y.ID()))

	err = g.SetOperand(out.ID(), 3, Ref(x.ID()))
	assert.True(t, IsGraphError(err, ErrCodeSlotOutOfRange))
	assert.Len(t, out.Results(), 3)
}

func TestGraph_SetOperandRejectsForwardReference(t *testing.T) {
	g, x, _, add := buildAddGraph(t)

	err := g.SetOperand(add.ID(), 0, Ref(add.ID()))
	assert.True(t, IsGraphError(err, ErrCodeForwardReference))

	arg, err := g.Operand(add.ID(), 0)
	require.NoError(t, err)
	assert.Equal(t, Ref(x.ID()), arg)
}

func TestGraph_NodesIsSnapshot(t *testing.T) {
	g, x, _, add := buildAddGraph(t)
	snapshot := g.Nodes()

	err := g.InsertBefore(add.ID(), func(b *Builder) error {
		_, err := b.Call("accel.tanh", Ref(x.ID()))
		return err
	})
	require.NoError(t, err)

	assert.Len(t, snapshot, 4)
	assert.Len(t, g.Nodes(), 5)
}

func TestTarget_Classification(t *testing.T) {
	for _, target := range TransferTargets {
		assert.True(t, target.IsTransfer(), string(target))
	}
	assert.False(t, TargetToLayout.IsTransfer())
	assert.False(t, Target("accel.add").IsTransfer())

	assert.Equal(t, "to_layout", TargetToLayout.Base())
	assert.Equal(t, "relu", Target("relu").Base())
	assert.Equal(t, "node", Target("aten.").Base())
}

func TestGraph_String(t *testing.T) {
	g := New()
	b := g.Append()
	x, err := b.Placeholder("x")
	require.NoError(t, err)
	w, err := b.GetAttr("w", "model.weight")
	require.NoError(t, err)
	mm, err := b.Call("accel.matmul", Ref(x.ID()), Ref(w.ID()))
	require.NoError(t, err)
	r, err := b.Call("accel.reshape", Ref(mm.ID()), Seq{Int(2), Int(-1)})
	require.NoError(t, err)
	l, err := b.Call(TargetToLayout, Ref(r.ID()), Layout("ROW_MAJOR"))
	require.NoError(t, err)
	_, err = b.Output(Ref(l.ID()), Float(0.5), Str("tag"), Bool(true))
	require.NoError(t, err)

	want := "%x = placeholder\n" +
		"%w = get_attr model.weight\n" +
		"%matmul = accel.matmul(%x, %w)\n" +
		"%reshape = accel.reshape(%matmul, [2, -1])\n" +
		"%to_layout = accel.to_layout(%reshape, layout(ROW_MAJOR))\n" +
		"return (%to_layout, 0.5, \"tag\", true)\n"
	assert.Equal(t, want, g.String())
}
