// Package app wires the marketplace runtime: the rollup loop, the optional
// journal and the optional operator gRPC API all share one processor.
package app
