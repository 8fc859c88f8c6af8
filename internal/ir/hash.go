package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// DomainGraph prefixes graph hashes. The version suffix allows migrating the
// encoding without colliding with older hashes.
const DomainGraph = "datamove/graph/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphHash computes a content hash of g's structure in program order.
// Node ids are not part of the hash; references are encoded by node name, so a
// graph reloaded from a file hashes the same as the graph that wrote it.
func GraphHash(g *Graph) (string, error) {
	canonical, err := MarshalCanonical(CanonicalGraph(g))
	if err != nil {
		return "", fmt.Errorf("GraphHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// CanonicalGraph converts g to the generic map form MarshalCanonical accepts.
func CanonicalGraph(g *Graph) map[string]any {
	nodes := make([]any, 0, g.Len())
	for _, n := range g.Nodes() {
		entry := map[string]any{
			"name": n.name,
			"op":   string(n.op),
		}
		if n.target != "" {
			entry["target"] = string(n.target)
		}
		key := "args"
		if n.op == OpOutput {
			key = "results"
		}
		entry[key] = g.canonicalArgs(*n.slots())
		nodes = append(nodes, entry)
	}
	return map[string]any{
		"ir_version": IRVersion,
		"nodes":      nodes,
	}
}

func (g *Graph) canonicalArgs(args []Arg) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = g.canonicalArg(a)
	}
	return out
}

func (g *Graph) canonicalArg(a Arg) map[string]any {
	switch v := a.(type) {
	case Ref:
		name := "<" + strconv.Itoa(int(v)) + ">"
		if p := g.nodes[NodeID(v)]; p != nil {
			name = p.name
		}
		return map[string]any{"ref": name}
	case Int:
		return map[string]any{"int": int64(v)}
	case Float:
		// Floats are forbidden in canonical JSON; the shortest round-trip
		// decimal form is stable.
		return map[string]any{"float": strconv.FormatFloat(float64(v), 'g', -1, 64)}
	case Bool:
		return map[string]any{"bool": bool(v)}
	case Str:
		return map[string]any{"str": string(v)}
	case Seq:
		return map[string]any{"seq": g.canonicalArgs(v)}
	case Device:
		return map[string]any{"device": string(v)}
	case Layout:
		return map[string]any{"layout": string(v)}
	default:
		return map[string]any{"nil": true}
	}
}
