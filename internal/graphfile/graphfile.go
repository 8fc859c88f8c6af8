package graphfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/datamove/internal/ir"
)

// ErrInvalid is wrapped by every structural problem in a graph file.
var ErrInvalid = errors.New("invalid graph file")

// File is the YAML document shape.
type File struct {
	Nodes []NodeSpec `yaml:"nodes"`
}

// NodeSpec describes one node.
// Calls carry Target and Args; the output node carries Results.
// The output node's name is assigned by the graph and ignored on input.
type NodeSpec struct {
	Name    string     `yaml:"name,omitempty"`
	Op      ir.OpKind  `yaml:"op"`
	Target  ir.Target  `yaml:"target,omitempty"`
	Args    []ArgSpec  `yaml:"args,omitempty"`
	Results *[]ArgSpec `yaml:"results,omitempty"`
}

// ArgSpec is one operand. Exactly one field is set.
type ArgSpec struct {
	Ref    *string    `yaml:"ref,omitempty"`
	Int    *int64     `yaml:"int,omitempty"`
	Float  *float64   `yaml:"float,omitempty"`
	Bool   *bool      `yaml:"bool,omitempty"`
	Str    *string    `yaml:"str,omitempty"`
	Seq    *[]ArgSpec `yaml:"seq,omitempty"`
	Device *string    `yaml:"device,omitempty"`
	Layout *string    `yaml:"layout,omitempty"`
}

// Load reads the graph file at path.
func Load(path string) (*ir.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	g, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Write encodes g to path, replacing any existing file.
func Write(path string, g *ir.Graph) error {
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write graph file: %w", err)
	}
	return nil
}

// Decode parses a graph document. Unknown fields are rejected.
func Decode(r io.Reader) (*ir.Graph, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return Build(&f)
}

// Build turns a decoded document into a graph. Nodes are appended in the
// listed order, so every ref must name a node listed earlier.
func Build(f *File) (*ir.Graph, error) {
	if len(f.Nodes) == 0 {
		return nil, fmt.Errorf("%w: nodes list is empty", ErrInvalid)
	}

	g := ir.New()
	b := g.Append()
	for i, spec := range f.Nodes {
		if err := addNode(g, b, spec); err != nil {
			return nil, fmt.Errorf("nodes[%d] %s: %w", i, spec.Name, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func addNode(g *ir.Graph, b *ir.Builder, spec NodeSpec) error {
	if !ir.ValidOpKinds[spec.Op] {
		return fmt.Errorf("%w: unknown op %q", ErrInvalid, spec.Op)
	}
	if spec.Op != ir.OpOutput && spec.Results != nil {
		return fmt.Errorf("%w: only the output node has results", ErrInvalid)
	}
	if spec.Op != ir.OpCall && len(spec.Args) > 0 {
		return fmt.Errorf("%w: only call_function nodes have args", ErrInvalid)
	}

	var err error
	switch spec.Op {
	case ir.OpPlaceholder:
		if spec.Name == "" {
			return fmt.Errorf("%w: placeholder needs a name", ErrInvalid)
		}
		_, err = b.Placeholder(spec.Name)
	case ir.OpGetAttr:
		if spec.Name == "" || spec.Target == "" {
			return fmt.Errorf("%w: get_attr needs a name and a target", ErrInvalid)
		}
		_, err = b.GetAttr(spec.Name, spec.Target)
	case ir.OpCall:
		if spec.Target == "" {
			return fmt.Errorf("%w: call_function needs a target", ErrInvalid)
		}
		args, convErr := toArgs(g, spec.Args)
		if convErr != nil {
			return convErr
		}
		if spec.Name == "" {
			_, err = b.Call(spec.Target, args...)
		} else {
			_, err = b.CallNamed(spec.Name, spec.Target, args...)
		}
	case ir.OpOutput:
		if spec.Results == nil {
			return fmt.Errorf("%w: output node needs a results list", ErrInvalid)
		}
		results, convErr := toArgs(g, *spec.Results)
		if convErr != nil {
			return convErr
		}
		_, err = b.Output(results...)
	}
	return err
}

func toArgs(g *ir.Graph, specs []ArgSpec) ([]ir.Arg, error) {
	args := make([]ir.Arg, len(specs))
	for i, s := range specs {
		a, err := s.toArg(g)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		args[i] = a
	}
	return args, nil
}

func (s ArgSpec) toArg(g *ir.Graph) (ir.Arg, error) {
	var (
		set int
		out ir.Arg
	)
	if s.Ref != nil {
		set++
		n := g.Lookup(*s.Ref)
		if n == nil {
			return nil, fmt.Errorf("%w: ref %q does not name an earlier node", ErrInvalid, *s.Ref)
		}
		out = ir.Ref(n.ID())
	}
	if s.Int != nil {
		set++
		out = ir.Int(*s.Int)
	}
	if s.Float != nil {
		set++
		out = ir.Float(*s.Float)
	}
	if s.Bool != nil {
		set++
		out = ir.Bool(*s.Bool)
	}
	if s.Str != nil {
		set++
		out = ir.Str(*s.Str)
	}
	if s.Seq != nil {
		set++
		elems := make(ir.Seq, len(*s.Seq))
		for i, e := range *s.Seq {
			if e.Ref != nil {
				return nil, fmt.Errorf("%w: seq element %d is a ref", ErrInvalid, i)
			}
			a, err := e.toArg(g)
			if err != nil {
				return nil, fmt.Errorf("seq element %d: %w", i, err)
			}
			elems[i] = a
		}
		out = elems
	}
	if s.Device != nil {
		set++
		out = ir.Device(*s.Device)
	}
	if s.Layout != nil {
		set++
		out = ir.Layout(*s.Layout)
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: argument must set exactly one kind, got %d", ErrInvalid, set)
	}
	return out, nil
}

// Encode writes g in the format Decode reads.
func Encode(w io.Writer, g *ir.Graph) error {
	f := FromGraph(g)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// FromGraph converts g into its document form.
func FromGraph(g *ir.Graph) *File {
	nodes := g.Nodes()
	f := &File{Nodes: make([]NodeSpec, 0, len(nodes))}
	for _, n := range nodes {
		spec := NodeSpec{Name: n.Name(), Op: n.Op(), Target: n.Target()}
		switch {
		case n.IsOutput():
			spec.Name = ""
			results := fromArgs(g, n.Results())
			spec.Results = &results
		case n.Op() == ir.OpCall:
			spec.Args = fromArgs(g, n.Args())
		}
		f.Nodes = append(f.Nodes, spec)
	}
	return f
}

func fromArgs(g *ir.Graph, args []ir.Arg) []ArgSpec {
	out := make([]ArgSpec, len(args))
	for i, a := range args {
		out[i] = fromArg(g, a)
	}
	return out
}

func fromArg(g *ir.Graph, a ir.Arg) ArgSpec {
	switch v := a.(type) {
	case ir.Ref:
		name := g.Node(ir.NodeID(v)).Name()
		return ArgSpec{Ref: &name}
	case ir.Int:
		i := int64(v)
		return ArgSpec{Int: &i}
	case ir.Float:
		f := float64(v)
		return ArgSpec{Float: &f}
	case ir.Bool:
		b := bool(v)
		return ArgSpec{Bool: &b}
	case ir.Str:
		s := string(v)
		return ArgSpec{Str: &s}
	case ir.Seq:
		elems := fromArgs(g, v)
		return ArgSpec{Seq: &elems}
	case ir.Device:
		s := string(v)
		return ArgSpec{Device: &s}
	case ir.Layout:
		s := string(v)
		return ArgSpec{Layout: &s}
	}
	return ArgSpec{}
}
