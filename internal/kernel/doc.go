// Package kernel implements the match pipeline as compute kernels.
//
// One search runs these dispatches against the same transfer buffers:
//
//	match.prefix → match.substring → match.key → match.fuzzy → score → compact
//	sort.gather → sort.even/sort.odd (N ≤ TranspositionLimit)
//	sort.gather → sort.runs → sort.merge… (N > TranspositionLimit)
//
// Every match kernel skips items an earlier stage already claimed, so the
// first satisfied stage wins. Scoring and ordering delegate to package
// score; kernels only decide how the per-item work is laid out.
package kernel
