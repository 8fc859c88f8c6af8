// Package ir provides the dataflow graph the transfer pass rewrites.
//
// A Graph is an arena of Nodes addressed by stable NodeIDs and linked in
// program order. Operand slots hold an Arg: either a Ref (a producer edge) or
// an inline literal. The graph keeps a reverse index of users per producer,
// updated only by SetOperand and node creation; callers never touch it.
//
// The output node is a distinct variant: its operands are the ordered result
// list of the graph, stored apart from the positional Args of ordinary nodes.
// Operands and SetOperand address either shape through the same slot index.
//
// This package imports nothing internal. All other internal packages import ir.
package ir
