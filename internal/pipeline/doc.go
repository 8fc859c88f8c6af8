// Package pipeline composes graph passes into an ordered compilation pipeline.
//
// A Pass takes a graph and returns a Result: the (possibly replaced) graph and
// whether anything changed. The Manager runs passes in order, logs each step,
// opens a tracing span per pass, and hands a Step record to an optional
// Recorder so runs can be audited later.
package pipeline
