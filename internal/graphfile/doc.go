// Package graphfile reads and writes graphs as YAML.
//
// A file lists nodes in program order:
//
//	nodes:
//	  - name: x
//	    op: placeholder
//	  - name: add
//	    op: call_function
//	    target: accel.add
//	    args: [{ref: x}, {int: 1}]
//	  - op: output
//	    results: [{ref: add}]
//
// Each argument is a single-key map naming its kind: ref, int, float, bool,
// str, seq, device or layout. Encode writes the same format, so a rewritten
// graph can be fed back through Decode.
package graphfile
