// Package layout defines the fixed-size, fixed-layout transfer buffers that
// mirror search items for the compute device.
//
// # Item record
//
// Every item occupies one record of Stride() bytes in a flat slab:
//
//	offset          size  field
//	0               F     name bytes (≤ F-1 used, zero padded)
//	F               F     secondary key bytes (≤ F-1 used, zero padded)
//	2F              4     index       (uint32, little endian)
//	2F+4            4     nameLength  (uint32, little endian)
//	2F+8            4     keyLength   (uint32, little endian)
//
// F is the field capacity (default 128). Fields are length prefixed rather
// than NUL terminated; the trailing zero byte is kept only so the record is
// a drop-in mirror of a C-style layout. Overflowing fields are truncated
// silently at a rune boundary.
//
// # Reuse
//
// Buffers are pooled and reused across calls. Every Reset overwrites the
// whole used region so no stale item data survives into the next dispatch.
package layout
