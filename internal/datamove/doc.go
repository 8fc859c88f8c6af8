// Package datamove inserts explicit host/accelerator transfer nodes into a
// dataflow graph.
//
// For every edge whose producer and consumer sit in different execution
// domains, the pass splices a transfer chain immediately before the consumer
// and rewires exactly that edge:
//
//	move-in:  from_host(src) -> to_device(., device)
//	move-out: from_device(src) -> to_layout(., row-major) -> to_host(.)
//
// The pass sweeps a snapshot of the graph once. Nodes it inserts are never
// revisited, which is sound because every synthesized edge joins two nodes of
// the same domain. Check re-evaluates every edge afterwards and the pass
// fails if a boundary survives.
package datamove
