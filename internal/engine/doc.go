// Package engine implements the search engine: query normalization, the
// result cache, execution path selection, and the compute pipeline with
// its CPU fallback.
//
// Both execution paths rank with the shared scorer in internal/score, so a
// path only changes how per-item work is scheduled, never the result.
package engine
