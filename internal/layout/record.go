package layout

import (
	"encoding/binary"

	"github.com/hupe1980/appdeck/internal/score"
)

const (
	// DefaultFieldCapacity is the per-field capacity in bytes, terminator included.
	DefaultFieldCapacity = 128
	// DefaultQueryCapacity is the query capacity in bytes, terminator included.
	DefaultQueryCapacity = 256

	headerSize = 12
)

// Layout describes the record geometry.
type Layout struct {
	FieldCapacity int
}

// Default returns the default layout.
func Default() Layout {
	return Layout{FieldCapacity: DefaultFieldCapacity}
}

// normalized returns l with a usable field capacity.
func (l Layout) normalized() Layout {
	if l.FieldCapacity < 2 {
		l.FieldCapacity = DefaultFieldCapacity
	}
	return l
}

// Stride returns the size of one item record in bytes.
func (l Layout) Stride() int {
	l = l.normalized()
	return 2*l.FieldCapacity + headerSize
}

// MaxFieldLength returns the number of usable bytes per field.
func (l Layout) MaxFieldLength() int {
	return l.normalized().FieldCapacity - 1
}

// Record is a read-only view into one item record.
type Record struct {
	Name  []byte
	Key   []byte
	Index uint32
}

// Ranked returns the ranking view of the record for the given score.
func (r Record) Ranked(s float32) score.Ranked {
	return score.Ranked{Score: s, Name: r.Name, Key: r.Key, Index: r.Index}
}

// ItemBuffer is a flat slab of item records.
type ItemBuffer struct {
	layout Layout
	data   []byte
	n      int
}

// NewItemBuffer returns an empty buffer for the given layout.
func NewItemBuffer(l Layout) *ItemBuffer {
	return &ItemBuffer{layout: l.normalized()}
}

// Layout returns the buffer's layout.
func (b *ItemBuffer) Layout() Layout { return b.layout }

// Len returns the number of records.
func (b *ItemBuffer) Len() int { return b.n }

// Bytes returns the used region of the slab.
func (b *ItemBuffer) Bytes() []byte { return b.data[:b.n*b.layout.Stride()] }

// Reset resizes the buffer to n records and zeroes the used region.
func (b *ItemBuffer) Reset(n int) {
	size := n * b.layout.Stride()
	if cap(b.data) < size {
		b.data = make([]byte, size)
	} else {
		b.data = b.data[:size]
		clear(b.data)
	}
	b.n = n
}

// Store writes record i. name and key must already be folded.
// Fields longer than the capacity are truncated silently.
func (b *ItemBuffer) Store(i int, index uint32, name, key string) {
	stride := b.layout.Stride()
	fc := b.layout.FieldCapacity
	rec := b.data[i*stride : (i+1)*stride]

	nameLen := copy(rec[:fc-1], score.ClampString(name, fc-1))
	keyLen := copy(rec[fc:2*fc-1], score.ClampString(key, fc-1))

	// Zero the remainder so a reused record never leaks a previous item.
	clear(rec[nameLen:fc])
	clear(rec[fc+keyLen : 2*fc])

	hdr := rec[2*fc:]
	binary.LittleEndian.PutUint32(hdr[0:4], index)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(nameLen))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(keyLen))
}

// Record returns a view of record i. The slices alias the buffer.
func (b *ItemBuffer) Record(i int) Record {
	stride := b.layout.Stride()
	fc := b.layout.FieldCapacity
	rec := b.data[i*stride : (i+1)*stride]
	hdr := rec[2*fc:]

	nameLen := binary.LittleEndian.Uint32(hdr[4:8])
	keyLen := binary.LittleEndian.Uint32(hdr[8:12])
	return Record{
		Name:  rec[:nameLen:nameLen],
		Key:   rec[fc : fc+int(keyLen) : fc+int(keyLen)],
		Index: binary.LittleEndian.Uint32(hdr[0:4]),
	}
}

// QueryBuffer holds the folded query.
type QueryBuffer struct {
	data []byte
	n    int
}

// NewQueryBuffer returns a query buffer of the given capacity (terminator
// included).
func NewQueryBuffer(capacity int) *QueryBuffer {
	if capacity < 2 {
		capacity = DefaultQueryCapacity
	}
	return &QueryBuffer{data: make([]byte, capacity)}
}

// Capacity returns the buffer capacity including the terminator.
func (q *QueryBuffer) Capacity() int { return len(q.data) }

// Store overwrites the buffer with q, truncating silently.
func (q *QueryBuffer) Store(s string) {
	clear(q.data)
	q.n = copy(q.data[:len(q.data)-1], score.ClampString(s, len(q.data)-1))
}

// Bytes returns the stored query.
func (q *QueryBuffer) Bytes() []byte { return q.data[:q.n:q.n] }

// ResultBuffer holds the per-item match results and scores.
type ResultBuffer struct {
	Kind  []uint8
	Field []uint8
	Pos   []int32
	Score []float32
}

// Reset resizes the buffer to n entries, all non-matches with score 0.
func (r *ResultBuffer) Reset(n int) {
	r.Kind = resize(r.Kind, n)
	r.Field = resize(r.Field, n)
	r.Score = resize(r.Score, n)
	r.Pos = resize(r.Pos, n)
	for i := range r.Pos {
		r.Pos[i] = -1
	}
}

// Len returns the number of entries.
func (r *ResultBuffer) Len() int { return len(r.Kind) }

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	clear(s)
	return s
}
