package graphfile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datamove/internal/ir"
)

func TestLoad_AddGraph(t *testing.T) {
	g, err := Load(filepath.Join("testdata", "add.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "%x = placeholder\n"+
		"%y = placeholder\n"+
		"%add = accel.add(%x, %y)\n"+
		"return (%add)\n", g.String())
}

func TestDecode_AllArgumentKinds(t *testing.T) {
	doc := `
nodes:
  - name: x
    op: placeholder
  - name: w
    op: get_attr
    target: model.weight
  - name: r
    op: call_function
    target: accel.reshape
    args:
      - ref: x
      - seq: [{int: 2}, {int: -1}, {seq: []}]
  - op: call_function
    target: host.pack
    args:
      - ref: r
      - ref: w
      - float: 0.25
      - bool: true
      - str: "mode"
      - device: "accel:1"
      - layout: TILE
  - op: output
    results: [{ref: pack}, {int: 7}]
`
	g, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	pack := g.Lookup("pack")
	require.NotNil(t, pack)
	assert.Equal(t, []ir.Arg{
		ir.Ref(g.Lookup("r").ID()),
		ir.Ref(g.Lookup("w").ID()),
		ir.Float(0.25),
		ir.Bool(true),
		ir.Str("mode"),
		ir.Device("accel:1"),
		ir.Layout("TILE"),
	}, pack.Args())
	assert.Equal(t, ir.Seq{ir.Int(2), ir.Int(-1), ir.Seq{}}, g.Lookup("r").Args()[1])
	assert.Equal(t, []ir.Arg{ir.Ref(pack.ID()), ir.Int(7)}, g.OutputNode().Results())
}

func TestEncode_RoundTrip(t *testing.T) {
	g, err := Load(filepath.Join("testdata", "add.yaml"))
	require.NoError(t, err)

	// Put every literal kind through the encoder as well.
	out := g.OutputNode()
	require.NoError(t, g.InsertBefore(out.ID(), func(b *ir.Builder) error {
		_, err := b.CallNamed("mix", "host.mix",
			ir.Ref(g.Lookup("add").ID()),
			ir.Seq{ir.Int(1), ir.Seq{ir.Str("a")}},
			ir.Float(1.5), ir.Bool(false), ir.Device("d"), ir.Layout("L"))
		return err
	}))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))
	assert.Contains(t, buf.String(), "target: accel.add")
	assert.NotContains(t, buf.String(), "name: output")

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.String(), again.String())

	want, err := ir.GraphHash(g)
	require.NoError(t, err)
	got, err := ir.GraphHash(again)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWrite_ThenLoad(t *testing.T) {
	g, err := Load(filepath.Join("testdata", "add.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Write(path, g))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, g.String(), loaded.String())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown field",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n    shape: [2]\n",
			wantErr: "field shape not found",
		},
		{
			name:    "empty",
			doc:     "nodes: []\n",
			wantErr: "nodes list is empty",
		},
		{
			name:    "unknown op",
			doc:     "nodes:\n  - name: x\n    op: constant\n",
			wantErr: `unknown op "constant"`,
		},
		{
			name:    "forward ref",
			doc:     "nodes:\n  - op: call_function\n    target: accel.tanh\n    args: [{ref: x}]\n  - name: x\n    op: placeholder\n",
			wantErr: `ref "x" does not name an earlier node`,
		},
		{
			name:    "two kinds in one arg",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n  - op: output\n    results: [{ref: x, int: 1}]\n",
			wantErr: "exactly one kind, got 2",
		},
		{
			name:    "no kind",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n  - op: output\n    results: [{}]\n",
			wantErr: "exactly one kind, got 0",
		},
		{
			name:    "ref inside seq",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n  - op: output\n    results: [{seq: [{ref: x}]}]\n",
			wantErr: "seq element 0 is a ref",
		},
		{
			name:    "results on a call",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n  - op: call_function\n    target: accel.tanh\n    results: [{ref: x}]\n",
			wantErr: "only the output node has results",
		},
		{
			name:    "call without target",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n  - op: call_function\n    args: [{ref: x}]\n",
			wantErr: "call_function needs a target",
		},
		{
			name:    "missing results",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n  - op: output\n",
			wantErr: "output node needs a results list",
		},
		{
			name:    "missing output",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n",
			wantErr: "graph has no output node",
		},
		{
			name:    "duplicate name",
			doc:     "nodes:\n  - name: x\n    op: placeholder\n  - name: x\n    op: placeholder\n",
			wantErr: "DUPLICATE_NAME",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecode_MissingOutputIsNoOutputError(t *testing.T) {
	_, err := Decode(strings.NewReader("nodes:\n  - name: x\n    op: placeholder\n"))
	assert.ErrorIs(t, err, ir.ErrNoOutput)
}

func TestDecode_EmptyResultsList(t *testing.T) {
	g, err := Decode(strings.NewReader("nodes:\n  - name: x\n    op: placeholder\n  - op: output\n    results: []\n"))
	require.NoError(t, err)
	assert.Empty(t, g.OutputNode().Results())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))
	assert.Contains(t, buf.String(), "results: []")

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.String(), again.String())
}

func TestDecode_MissingResultsIsInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader("nodes:\n  - name: x\n    op: placeholder\n  - op: output\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}
