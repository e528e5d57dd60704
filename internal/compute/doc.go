// Package compute provides the compute-device abstraction the match
// pipeline dispatches to.
//
// A Device records kernels into a CommandBuffer. Dispatches within one
// command buffer run in submission order with a full barrier between them;
// work items within one dispatch run concurrently and must only write to
// state owned by their global id. Commit submits asynchronously and Wait
// blocks until the whole buffer has completed.
//
// # Backends
//
//   - parallel: data-parallel software backend. Work items are grouped into
//     work groups sized from the host's SIMD lane width and executed on a
//     bounded set of goroutines.
//
// Probe selects a backend at startup. Set APPDECK_COMPUTE=cpu to disable the
// compute path entirely, or APPDECK_COMPUTE=parallel to force it.
package compute
