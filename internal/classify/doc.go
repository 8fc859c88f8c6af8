// Package classify sorts graph nodes into execution domains.
//
// Every node is exactly one of: literal (not a node), host work, accelerator
// compute, or accelerator transfer. Compute membership comes from an injected
// allow-list so alternate accelerator generations can be modelled by swapping
// profiles; the transfer primitives are fixed by the ir package.
package classify
